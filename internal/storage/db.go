package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"focorders/internal"
)

// DB is the local store: mail ledger, run log, and an append-only copy of the
// warehouse tables for runs without BigQuery.
type DB struct {
	conn *sql.DB
}

type RunRow struct {
	RunID     string
	Source    string
	Timings   map[string]float64
	Counts    map[string]int
	CreatedAt string
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS emails (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  sender TEXT,
  receivedAt TEXT,
  hash TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'fetched',
  rawRef TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId TEXT NOT NULL,
  source TEXT NOT NULL,
  timingsJson TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS foc_order_headers (
  rowId INTEGER PRIMARY KEY AUTOINCREMENT,
  SalesOrderWithoutCharge TEXT,
  SalesOrderWithoutChargeType TEXT,
  SalesOrganization TEXT,
  DistributionChannel TEXT,
  OrganizationDivision TEXT,
  SoldToParty TEXT,
  PurchaseOrderByCustomer TEXT,
  SalesOrderWithoutChargeDate TEXT,
  RequestedDeliveryDate TEXT,
  TransactionCurrency TEXT,
  OverallSDProcessStatus TEXT,
  OverallTotalDeliveryStatus TEXT,
  raw_response TEXT NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_foc_headers_order ON foc_order_headers(SalesOrderWithoutCharge);

CREATE TABLE IF NOT EXISTS foc_order_items (
  rowId INTEGER PRIMARY KEY AUTOINCREMENT,
  SalesOrderWithoutCharge TEXT NOT NULL,
  SalesOrderWithoutChargeItem TEXT,
  SoldToParty TEXT,
  PurchaseOrderByCustomer TEXT,
  Material TEXT,
  RequestedQuantity TEXT,
  RequestedQuantityUnit TEXT,
  Plant TEXT,
  StorageLocation TEXT,
  ShippingPoint TEXT,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_foc_items_order ON foc_order_items(SalesOrderWithoutCharge);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) AppendHeaders(ctx context.Context, rows []internal.WarehouseHeaderRecord) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO foc_order_headers (
  SalesOrderWithoutCharge, SalesOrderWithoutChargeType, SalesOrganization, DistributionChannel,
  OrganizationDivision, SoldToParty, PurchaseOrderByCustomer, SalesOrderWithoutChargeDate,
  RequestedDeliveryDate, TransactionCurrency, OverallSDProcessStatus, OverallTotalDeliveryStatus,
  raw_response, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, h := range rows {
		if _, err := stmt.ExecContext(ctx,
			h.SalesOrderWithoutCharge, h.SalesOrderWithoutChargeType, h.SalesOrganization, h.DistributionChannel,
			h.OrganizationDivision, h.SoldToParty, h.PurchaseOrderByCustomer, h.SalesOrderWithoutChargeDate,
			h.RequestedDeliveryDate, h.TransactionCurrency, h.OverallSDProcessStatus, h.OverallTotalDeliveryStatus,
			h.RawResponse, h.CreatedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (d *DB) AppendItems(ctx context.Context, rows []internal.WarehouseItemRecord) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO foc_order_items (
  SalesOrderWithoutCharge, SalesOrderWithoutChargeItem, SoldToParty, PurchaseOrderByCustomer,
  Material, RequestedQuantity, RequestedQuantityUnit, Plant, StorageLocation, ShippingPoint, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, it := range rows {
		if _, err := stmt.ExecContext(ctx,
			it.SalesOrderWithoutCharge, it.SalesOrderWithoutChargeItem, it.SoldToParty, it.PurchaseOrderByCustomer,
			it.Material, it.RequestedQuantity, it.RequestedQuantityUnit, it.Plant, it.StorageLocation, it.ShippingPoint,
			it.CreatedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (d *DB) ListHeaders(orderNumber string) ([]internal.WarehouseHeaderRecord, error) {
	rows, err := d.conn.Query(`
SELECT SalesOrderWithoutCharge, SalesOrderWithoutChargeType, SalesOrganization, DistributionChannel,
       OrganizationDivision, SoldToParty, PurchaseOrderByCustomer, SalesOrderWithoutChargeDate,
       RequestedDeliveryDate, TransactionCurrency, OverallSDProcessStatus, OverallTotalDeliveryStatus,
       raw_response, created_at
FROM foc_order_headers WHERE SalesOrderWithoutCharge = ? ORDER BY rowId`, orderNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.WarehouseHeaderRecord
	for rows.Next() {
		var h internal.WarehouseHeaderRecord
		if err := rows.Scan(
			&h.SalesOrderWithoutCharge, &h.SalesOrderWithoutChargeType, &h.SalesOrganization, &h.DistributionChannel,
			&h.OrganizationDivision, &h.SoldToParty, &h.PurchaseOrderByCustomer, &h.SalesOrderWithoutChargeDate,
			&h.RequestedDeliveryDate, &h.TransactionCurrency, &h.OverallSDProcessStatus, &h.OverallTotalDeliveryStatus,
			&h.RawResponse, &h.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (d *DB) ListItems(orderNumber string) ([]internal.WarehouseItemRecord, error) {
	rows, err := d.conn.Query(`
SELECT SalesOrderWithoutCharge, SalesOrderWithoutChargeItem, SoldToParty, PurchaseOrderByCustomer,
       Material, RequestedQuantity, RequestedQuantityUnit, Plant, StorageLocation, ShippingPoint, created_at
FROM foc_order_items WHERE SalesOrderWithoutCharge = ? ORDER BY rowId`, orderNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.WarehouseItemRecord
	for rows.Next() {
		var it internal.WarehouseItemRecord
		if err := rows.Scan(
			&it.SalesOrderWithoutCharge, &it.SalesOrderWithoutChargeItem, &it.SoldToParty, &it.PurchaseOrderByCustomer,
			&it.Material, &it.RequestedQuantity, &it.RequestedQuantityUnit, &it.Plant, &it.StorageLocation, &it.ShippingPoint,
			&it.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (d *DB) InsertRun(runID, source string, timings map[string]float64, counts map[string]int) error {
	timingsJSON, _ := json.Marshal(timings)
	countsJSON, _ := json.Marshal(counts)
	_, err := d.conn.Exec(`INSERT INTO runs (runId, source, timingsJson, countsJson) VALUES (?, ?, ?, ?)`, runID, source, string(timingsJSON), string(countsJSON))
	return err
}

func (d *DB) ListRuns(limit int) ([]RunRow, error) {
	rows, err := d.conn.Query(`SELECT runId, source, timingsJson, countsJson, createdAt FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		var timingsJSON, countsJSON string
		if err := rows.Scan(&r.RunID, &r.Source, &timingsJSON, &countsJSON, &r.CreatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(timingsJSON), &r.Timings)
		_ = json.Unmarshal([]byte(countsJSON), &r.Counts)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) UpsertEmail(provider, messageID, subject, sender, receivedAt, hash, rawRef, status string) (internal.EmailRow, error) {
	_, err := d.conn.Exec(`
INSERT INTO emails (provider, messageId, subject, sender, receivedAt, hash, status, rawRef)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO UPDATE SET
  subject=excluded.subject,
  sender=excluded.sender,
  receivedAt=excluded.receivedAt,
  hash=excluded.hash,
  rawRef=excluded.rawRef,
  updatedAt=CURRENT_TIMESTAMP
`, provider, messageID, subject, sender, receivedAt, hash, status, rawRef)
	if err != nil {
		return internal.EmailRow{}, err
	}

	row, err := d.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, errors.New("failed to upsert email")
	}
	return *row, nil
}

func (d *DB) GetEmailByProviderMessageID(provider, messageID string) (*internal.EmailRow, error) {
	var row internal.EmailRow
	err := d.conn.QueryRow(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM emails WHERE provider = ? AND messageId = ?
`, provider, messageID).Scan(
		&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) MustEmailByProviderMessageID(provider, messageID string) (internal.EmailRow, error) {
	row, err := d.GetEmailByProviderMessageID(provider, messageID)
	if err != nil {
		return internal.EmailRow{}, err
	}
	if row == nil {
		return internal.EmailRow{}, fmt.Errorf("email not found: provider=%s messageId=%s", provider, messageID)
	}
	return *row, nil
}

func (d *DB) ListEmailsByStatus(status string, limit int) ([]internal.EmailRow, error) {
	rows, err := d.conn.Query(`
SELECT id, provider, messageId, subject, sender, receivedAt, hash, status, rawRef
FROM emails WHERE status = ? ORDER BY receivedAt ASC, id ASC LIMIT ?
`, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.EmailRow
	for rows.Next() {
		var row internal.EmailRow
		if err := rows.Scan(&row.ID, &row.Provider, &row.MessageID, &row.Subject, &row.Sender, &row.ReceivedAt, &row.Hash, &row.Status, &row.RawRef); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) UpdateEmailStatus(emailID int, status string) error {
	_, err := d.conn.Exec(`UPDATE emails SET status = ?, updatedAt = CURRENT_TIMESTAMP WHERE id = ?`, status, emailID)
	return err
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
