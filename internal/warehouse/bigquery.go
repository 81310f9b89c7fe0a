package warehouse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2/google"
	bigquery "google.golang.org/api/bigquery/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"focorders/internal"
	"focorders/internal/config"
)

var headerColumns = []string{
	"SalesOrderWithoutCharge", "SalesOrderWithoutChargeType", "SalesOrganization", "DistributionChannel",
	"OrganizationDivision", "SoldToParty", "PurchaseOrderByCustomer", "SalesOrderWithoutChargeDate",
	"RequestedDeliveryDate", "TransactionCurrency", "OverallSDProcessStatus", "OverallTotalDeliveryStatus",
	"raw_response",
}

var itemColumns = []string{
	"SalesOrderWithoutCharge", "SalesOrderWithoutChargeItem", "SoldToParty", "PurchaseOrderByCustomer",
	"Material", "RequestedQuantity", "RequestedQuantityUnit", "Plant", "StorageLocation", "ShippingPoint",
}

// BigQueryWriter appends rows with WRITE_APPEND load jobs and waits for each job to finish.
type BigQueryWriter struct {
	svc         *bigquery.Service
	project     string
	dataset     string
	headerTable string
	itemTable   string
	location    string
	pollEvery   time.Duration
}

func NewBigQueryWriter(ctx context.Context, cfg config.Config, opts ...option.ClientOption) (*BigQueryWriter, error) {
	if err := cfg.Require("BQ_PROJECT", cfg.BQProject); err != nil {
		return nil, err
	}
	if err := cfg.Require("BQ_DATASET", cfg.BQDataset); err != nil {
		return nil, err
	}

	if len(opts) == 0 {
		credOpt, err := credentialsOption(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if credOpt != nil {
			opts = append(opts, credOpt)
		}
	}
	svc, err := bigquery.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}

	poll := time.Duration(cfg.BQLoadPollMs) * time.Millisecond
	if poll <= 0 {
		poll = time.Second
	}
	return &BigQueryWriter{
		svc:         svc,
		project:     cfg.BQProject,
		dataset:     cfg.BQDataset,
		headerTable: cfg.BQHeaderTable,
		itemTable:   cfg.BQItemTable,
		location:    cfg.BQLocation,
		pollEvery:   poll,
	}, nil
}

// credentialsOption prefers inline JSON, then a key file, then application default credentials.
func credentialsOption(ctx context.Context, cfg config.Config) (option.ClientOption, error) {
	blob := []byte(strings.TrimSpace(cfg.GCPServiceAccountJSON))
	if len(blob) == 0 && strings.TrimSpace(cfg.GCPServiceAccountFile) != "" {
		var err error
		blob, err = os.ReadFile(cfg.GCPServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account: %w", err)
		}
	}
	if len(blob) == 0 {
		return nil, nil
	}
	creds, err := google.CredentialsFromJSON(ctx, blob, bigquery.BigqueryScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account: %w", err)
	}
	return option.WithCredentials(creds), nil
}

func (w *BigQueryWriter) AppendHeaders(ctx context.Context, rows []internal.WarehouseHeaderRecord) error {
	return w.load(ctx, w.headerTable, headerSchema(), rows)
}

func (w *BigQueryWriter) AppendItems(ctx context.Context, rows []internal.WarehouseItemRecord) error {
	return w.load(ctx, w.itemTable, itemSchema(), rows)
}

func (w *BigQueryWriter) load(ctx context.Context, table string, schema *bigquery.TableSchema, rows any) error {
	payload, err := newlineJSON(rows)
	if err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}

	job := &bigquery.Job{
		JobReference: &bigquery.JobReference{
			ProjectId: w.project,
			JobId:     "focorders_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
			Location:  w.location,
		},
		Configuration: &bigquery.JobConfiguration{
			Load: &bigquery.JobConfigurationLoad{
				DestinationTable: &bigquery.TableReference{
					ProjectId: w.project,
					DatasetId: w.dataset,
					TableId:   table,
				},
				SourceFormat:      "NEWLINE_DELIMITED_JSON",
				WriteDisposition:  "WRITE_APPEND",
				CreateDisposition: "CREATE_IF_NEEDED",
				Schema:            schema,
			},
		},
	}

	inserted, err := w.svc.Jobs.Insert(w.project, job).
		Media(bytes.NewReader(payload), googleapi.ContentType("application/octet-stream")).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("bigquery load %s: %w", table, err)
	}
	return w.wait(ctx, table, inserted)
}

func (w *BigQueryWriter) wait(ctx context.Context, table string, job *bigquery.Job) error {
	jobID := job.JobReference.JobId
	for {
		if job.Status != nil && job.Status.State == "DONE" {
			if job.Status.ErrorResult != nil {
				return fmt.Errorf("bigquery load %s job %s: %s", table, jobID, job.Status.ErrorResult.Message)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.pollEvery):
		}

		next, err := w.svc.Jobs.Get(w.project, jobID).Location(w.location).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("bigquery job %s status: %w", jobID, err)
		}
		job = next
	}
}

func newlineJSON(rows any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	switch t := rows.(type) {
	case []internal.WarehouseHeaderRecord:
		for _, r := range t {
			if err := enc.Encode(r); err != nil {
				return nil, err
			}
		}
	case []internal.WarehouseItemRecord:
		for _, r := range t {
			if err := enc.Encode(r); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("unsupported row type %T", rows)
	}
	return buf.Bytes(), nil
}

func headerSchema() *bigquery.TableSchema {
	return tableSchema(headerColumns)
}

func itemSchema() *bigquery.TableSchema {
	return tableSchema(itemColumns)
}

func tableSchema(stringColumns []string) *bigquery.TableSchema {
	fields := make([]*bigquery.TableFieldSchema, 0, len(stringColumns)+1)
	for _, name := range stringColumns {
		fields = append(fields, &bigquery.TableFieldSchema{Name: name, Type: "STRING", Mode: "NULLABLE"})
	}
	fields = append(fields, &bigquery.TableFieldSchema{Name: "created_at", Type: "TIMESTAMP", Mode: "NULLABLE"})
	return &bigquery.TableSchema{Fields: fields}
}
