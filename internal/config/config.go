package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath     string
	RawMailDir string
	OutputDir  string

	SAPBaseURL       string
	SAPServicePath   string
	SAPEntitySet     string
	SAPUsername      string
	SAPPassword      string
	SAPTimeoutMs     int
	SAPRateLimitRPS  int
	OrderProfilePath string

	WarehouseDriver       string
	BQProject             string
	BQDataset             string
	BQHeaderTable         string
	BQItemTable           string
	BQLocation            string
	BQLoadPollMs          int
	GCPServiceAccountFile string
	GCPServiceAccountJSON string

	LogLevel        string
	LogFormat       string
	MetricsTextfile string

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string
	GmailQuery        string

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string
	IMAPMarkSeen bool

	MailListenerProvider    string
	MailListenerLabel       string
	MailListenerIntervalSec int
	MailListenerFetchMax    int
	MailListenerBatch       int
	MailListenerSummaries   bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "focorders.db")),
		RawMailDir: getEnv("MAIL_RAW_DIR", filepath.Join(cwd, "data", "raw")),
		OutputDir:  getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		SAPBaseURL:       getEnv("SAP_BASE_URL", "https://my411419-api.s4hana.cloud.sap"),
		SAPServicePath:   getEnv("SAP_SERVICE_PATH", "/sap/opu/odata/sap/API_SALES_ORDER_WITHOUT_CHARGE_SRV"),
		SAPEntitySet:     getEnv("SAP_ENTITY_SET", "A_SalesOrderWithoutCharge"),
		SAPUsername:      getEnv("SAP_USERNAME", ""),
		SAPPassword:      getEnv("SAP_PASSWORD", ""),
		SAPTimeoutMs:     getEnvInt("SAP_TIMEOUT_MS", 60000),
		SAPRateLimitRPS:  getEnvInt("SAP_RATE_LIMIT_RPS", 0),
		OrderProfilePath: getEnv("ORDER_PROFILE_PATH", ""),

		WarehouseDriver:       strings.ToLower(getEnv("WAREHOUSE_DRIVER", "bigquery")),
		BQProject:             getEnv("BQ_PROJECT", ""),
		BQDataset:             getEnv("BQ_DATASET", ""),
		BQHeaderTable:         getEnv("BQ_HEADER_TABLE", "sap_foc_sales_orders"),
		BQItemTable:           getEnv("BQ_ITEM_TABLE", "sap_foc_sales_order_items"),
		BQLocation:            getEnv("BQ_LOCATION", "asia-south1"),
		BQLoadPollMs:          getEnvInt("BQ_LOAD_POLL_MS", 1000),
		GCPServiceAccountFile: getEnv("GCP_SERVICE_ACCOUNT_FILE", ""),
		GCPServiceAccountJSON: getEnv("GCP_SERVICE_ACCOUNT_JSON", ""),

		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "console"),
		MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),
		GmailQuery:        getEnv("GMAIL_QUERY", "has:attachment (filename:xlsx OR filename:csv)"),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen: getEnvBool("IMAP_MARK_SEEN", false),

		MailListenerProvider:    getEnv("MAIL_LISTENER_PROVIDER", "gmail"),
		MailListenerLabel:       getEnv("MAIL_LISTENER_LABEL", "INBOX"),
		MailListenerIntervalSec: getEnvInt("MAIL_LISTENER_INTERVAL_SEC", 60),
		MailListenerFetchMax:    getEnvInt("MAIL_LISTENER_FETCH_MAX", 20),
		MailListenerBatch:       getEnvInt("MAIL_LISTENER_PROCESS_BATCH", 20),
		MailListenerSummaries:   getEnvBool("MAIL_LISTENER_SUMMARIES", true),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

// OrderEndpoint is the entity-set URL that accepts order creation POSTs.
func (c Config) OrderEndpoint() string {
	return c.ServiceRoot() + "/" + strings.Trim(c.SAPEntitySet, "/")
}

func (c Config) ServiceRoot() string {
	return strings.TrimRight(c.SAPBaseURL, "/") + "/" + strings.Trim(c.SAPServicePath, "/")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
