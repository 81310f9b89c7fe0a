package listener

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/jhillyerd/enmime"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"focorders/internal"
	"focorders/internal/erp"
	"focorders/internal/pipeline"
	"focorders/internal/storage"
)

type stubConnector struct {
	messages []internal.FetchedMailMessage
}

func (s *stubConnector) FetchInbox(context.Context, string, int) ([]internal.FetchedMailMessage, error) {
	out := s.messages
	s.messages = nil
	return out, nil
}

type fakeSubmitter struct {
	err     error
	sources []string
	lines   [][]internal.OrderLine
}

func (f *fakeSubmitter) SubmitFrom(_ context.Context, source string, lines []internal.OrderLine) (*pipeline.RunResult, error) {
	f.sources = append(f.sources, source)
	f.lines = append(f.lines, lines)
	if f.err != nil {
		return nil, f.err
	}
	orderNumber := "5001"
	return &pipeline.RunResult{RunID: "run", Source: source, Outcomes: []internal.SubmissionOutcome{
		{Status: internal.OutcomeSuccess, SoldToParty: lines[0].SoldToParty, PONumber: lines[0].PONumber, ItemCount: len(lines), OrderNumber: &orderNumber},
	}}, nil
}

func orderWorkbook(t *testing.T, header []any) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{header, {"A", "PO100", "1", "MaterialX", "5", "1100", "SL01", "SP01"}}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func message(t *testing.T, id string, attachment []byte, name string) internal.FetchedMailMessage {
	t.Helper()
	b := enmime.Builder().
		From("Orders Desk", "orders@example.com").
		To("ERP Intake", "intake@example.com").
		Subject("FOC orders " + id).
		Text([]byte("see attached"))
	if attachment != nil {
		b = b.AddAttachment(attachment, "application/octet-stream", name)
	}
	part, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	var raw bytes.Buffer
	if err := part.Encode(&raw); err != nil {
		t.Fatal(err)
	}
	return internal.FetchedMailMessage{Provider: "imap", MessageID: fmt.Sprintf("<%s@example.com>", id), Subject: "FOC orders " + id, Raw: raw.Bytes()}
}

var orderHeader = []any{"SoldToParty", "PO_Number", "Item", "Material", "Qty", "Plant", "StorageLocation", "ShippingPoint"}

func setup(t *testing.T, submitter Submitter, msgs ...internal.FetchedMailMessage) (*Service, *storage.DB, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "focorders.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	summaries := filepath.Join(dir, "out")
	opts := Options{Provider: "imap", Label: "INBOX", FetchMax: 10, Batch: 10, RawMailDir: filepath.Join(dir, "raw"), SummaryDir: summaries}
	svc := NewService(db, &stubConnector{messages: msgs}, submitter, opts, zerolog.New(io.Discard))
	return svc, db, summaries
}

func statusOf(t *testing.T, db *storage.DB, id string) string {
	t.Helper()
	row, err := db.MustEmailByProviderMessageID("imap", fmt.Sprintf("<%s@example.com>", id))
	if err != nil {
		t.Fatal(err)
	}
	return row.Status
}

func TestRunOnceStatuses(t *testing.T) {
	sub := &fakeSubmitter{}
	svc, db, summaries := setup(t, sub,
		message(t, "good", orderWorkbook(t, orderHeader), "orders.xlsx"),
		message(t, "plain", nil, ""),
		message(t, "bad", orderWorkbook(t, []any{"Customer", "PO"}), "orders.xlsx"),
	)

	res, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Fetched != 3 || res.Submitted != 1 || res.Skipped != 1 || res.Failed != 1 {
		t.Fatalf("res=%+v", res)
	}
	if got := statusOf(t, db, "good"); got != internal.EmailSubmitted {
		t.Fatalf("good=%s", got)
	}
	if got := statusOf(t, db, "plain"); got != internal.EmailSkipped {
		t.Fatalf("plain=%s", got)
	}
	if got := statusOf(t, db, "bad"); got != internal.EmailFailed {
		t.Fatalf("bad=%s", got)
	}

	if len(sub.sources) != 1 || sub.sources[0] != "imap:<good@example.com>#orders.xlsx" {
		t.Fatalf("sources=%v", sub.sources)
	}
	if len(sub.lines[0]) != 1 || sub.lines[0][0].Material != "MaterialX" {
		t.Fatalf("lines=%+v", sub.lines)
	}

	entries, err := os.ReadDir(summaries)
	if err != nil || len(entries) != 1 {
		t.Fatalf("summaries=%v err=%v", entries, err)
	}

	again, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if again.Submitted != 0 || len(sub.sources) != 1 {
		t.Fatalf("message submitted twice: %+v", again)
	}

	last, err := db.GetMetadata(lastCycleKey)
	if err != nil || last == nil {
		t.Fatalf("last cycle=%v err=%v", last, err)
	}
}

func TestAuthFailureLeavesMessagePending(t *testing.T) {
	sub := &fakeSubmitter{err: fmt.Errorf("fetch csrf token: %w", erp.ErrAuthentication)}
	svc, db, _ := setup(t, sub, message(t, "good", orderWorkbook(t, orderHeader), "orders.xlsx"))

	if _, err := svc.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got := statusOf(t, db, "good"); got != internal.EmailFetched {
		t.Fatalf("status=%s", got)
	}
}

type cancellingSubmitter struct {
	cancel context.CancelFunc
	calls  int
}

func (c *cancellingSubmitter) SubmitFrom(ctx context.Context, source string, lines []internal.OrderLine) (*pipeline.RunResult, error) {
	c.calls++
	orderNumber := "5001"
	c.cancel()
	return &pipeline.RunResult{RunID: "run", Source: source, Outcomes: []internal.SubmissionOutcome{
		{Status: internal.OutcomeSuccess, SoldToParty: lines[0].SoldToParty, PONumber: lines[0].PONumber, ItemCount: len(lines), OrderNumber: &orderNumber},
	}}, ctx.Err()
}

func TestCancelAfterPartialSendIsNotRetried(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := &cancellingSubmitter{cancel: cancel}
	svc, db, _ := setup(t, sub,
		message(t, "first", orderWorkbook(t, orderHeader), "orders.xlsx"),
		message(t, "second", orderWorkbook(t, orderHeader), "orders.xlsx"),
	)

	if _, err := svc.RunOnce(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v", err)
	}
	if got := statusOf(t, db, "first"); got != internal.EmailFailed {
		t.Fatalf("first=%s after order 5001 was created", got)
	}
	if got := statusOf(t, db, "second"); got != internal.EmailFetched {
		t.Fatalf("second=%s", got)
	}
	if sub.calls != 1 {
		t.Fatalf("calls=%d", sub.calls)
	}

	var res CycleResult
	if err := svc.ProcessPending(context.Background(), &res); err != nil {
		t.Fatal(err)
	}
	if sub.calls != 2 || res.Submitted+res.Failed != 1 {
		t.Fatalf("calls=%d res=%+v", sub.calls, res)
	}
	if got := statusOf(t, db, "first"); got != internal.EmailFailed {
		t.Fatalf("first resubmitted, status=%s", got)
	}
}
