package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"focorders/internal/config"
	"focorders/internal/orders"
)

const (
	csrfHeader = "x-csrf-token"
	csrfFetch  = "Fetch"
)

// ErrAuthentication marks a failed token fetch; no order may be submitted after it.
var ErrAuthentication = errors.New("erp authentication failed")

// Client is the authenticated OData session. The cookie jar keeps the server-side
// session that the CSRF token is bound to.
type Client struct {
	serviceRoot   string
	orderEndpoint string
	username      string
	password      string
	httpClient    *http.Client
	limiter       *RateLimiter
}

// Reply is the ERP answer to a create call, whatever its status.
type Reply struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

func (r *Reply) Created() bool { return r.StatusCode == http.StatusCreated }

func NewClient(cfg config.Config) (*Client, error) {
	if err := cfg.Require("SAP_USERNAME", cfg.SAPUsername); err != nil {
		return nil, err
	}
	if err := cfg.Require("SAP_PASSWORD", cfg.SAPPassword); err != nil {
		return nil, err
	}
	if err := cfg.Require("SAP_BASE_URL", cfg.SAPBaseURL); err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		serviceRoot:   cfg.ServiceRoot(),
		orderEndpoint: cfg.OrderEndpoint(),
		username:      cfg.SAPUsername,
		password:      cfg.SAPPassword,
		httpClient:    &http.Client{Timeout: time.Duration(cfg.SAPTimeoutMs) * time.Millisecond, Jar: jar},
		limiter:       NewRateLimiter(cfg.SAPRateLimitRPS),
	}, nil
}

// FetchToken asks the service root for a CSRF token.
func (c *Client) FetchToken(ctx context.Context) (string, error) {
	c.limiter.WaitTurn()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serviceRoot, nil)
	if err != nil {
		return "", err
	}
	c.authorize(req)
	req.Header.Set(csrfHeader, csrfFetch)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status=%d %s", ErrAuthentication, resp.StatusCode, Summarize(resp.Header.Get("Content-Type"), body))
	}
	token := strings.TrimSpace(resp.Header.Get(csrfHeader))
	if token == "" || strings.EqualFold(token, "required") {
		return "", fmt.Errorf("%w: no csrf token in response", ErrAuthentication)
	}
	return token, nil
}

// CreateOrder posts one order document. Non-2xx statuses are returned as a Reply, not an error.
func (c *Client) CreateOrder(ctx context.Context, token string, request orders.SubmissionRequest) (*Reply, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	c.limiter.WaitTurn()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.orderEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(csrfHeader, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Reply{StatusCode: resp.StatusCode, ContentType: resp.Header.Get("Content-Type"), Body: body}, nil
}

func (c *Client) authorize(req *http.Request) {
	req.SetBasicAuth(c.username, c.password)
}
