package listener

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"focorders/internal"
	"focorders/internal/config"
	"focorders/internal/connectors"
	gmailconnector "focorders/internal/connectors/gmail"
	imapconnector "focorders/internal/connectors/imap"
	"focorders/internal/erp"
	"focorders/internal/logging"
	"focorders/internal/orders"
	"focorders/internal/pipeline"
	"focorders/internal/util"
)

const lastCycleKey = "listener.last_cycle"

type Ledger interface {
	connectors.EmailLedger
	ListEmailsByStatus(status string, limit int) ([]internal.EmailRow, error)
	UpdateEmailStatus(emailID int, status string) error
	SetMetadata(key, value string) error
}

type Submitter interface {
	SubmitFrom(ctx context.Context, source string, lines []internal.OrderLine) (*pipeline.RunResult, error)
}

type Options struct {
	Provider   string
	Label      string
	Interval   time.Duration
	FetchMax   int
	Batch      int
	RawMailDir string
	// SummaryDir receives one outcome workbook per submitted attachment; empty disables it.
	SummaryDir string
}

func OptionsFromConfig(cfg config.Config) Options {
	opts := Options{
		Provider:   strings.ToLower(strings.TrimSpace(cfg.MailListenerProvider)),
		Label:      cfg.MailListenerLabel,
		Interval:   time.Duration(cfg.MailListenerIntervalSec) * time.Second,
		FetchMax:   cfg.MailListenerFetchMax,
		Batch:      cfg.MailListenerBatch,
		RawMailDir: cfg.RawMailDir,
	}
	if cfg.MailListenerSummaries {
		opts.SummaryDir = filepath.Join(cfg.OutputDir, "listener")
	}
	return opts
}

type Service struct {
	ledger    Ledger
	fetcher   *connectors.FetchService
	submitter Submitter
	opts      Options
	log       zerolog.Logger
}

type CycleResult struct {
	Fetched   int
	Stored    int
	Submitted int
	Failed    int
	Skipped   int
}

func NewService(ledger Ledger, connector connectors.MailConnector, submitter Submitter, opts Options, log zerolog.Logger) *Service {
	return &Service{
		ledger:    ledger,
		fetcher:   connectors.NewFetchService(ledger, opts.RawMailDir, connector),
		submitter: submitter,
		opts:      opts,
		log:       logging.For(log, "listener").With().Str("provider", opts.Provider).Logger(),
	}
}

// MakeConnector builds the mailbox client named by provider.
func MakeConnector(ctx context.Context, cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch provider {
	case "gmail":
		return gmailconnector.NewConnector(ctx, cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported listener provider: %s", provider)
	}
}

func (s *Service) Run(ctx context.Context) error {
	interval := s.opts.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			s.log.Error().Err(err).Msg("listener cycle failed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

// RunOnce fetches new mail, then submits every pending message.
func (s *Service) RunOnce(ctx context.Context) (CycleResult, error) {
	fetched, err := s.fetcher.FetchAndStore(ctx, s.opts.Label, s.opts.FetchMax)
	if err != nil {
		return CycleResult{}, err
	}
	res := CycleResult{Fetched: fetched.Fetched, Stored: fetched.Stored}

	if err := s.ProcessPending(ctx, &res); err != nil {
		return res, err
	}
	_ = s.ledger.SetMetadata(lastCycleKey, time.Now().UTC().Format(time.RFC3339))

	s.log.Info().
		Int("fetched", res.Fetched).
		Int("submitted", res.Submitted).
		Int("failed", res.Failed).
		Int("skipped", res.Skipped).
		Msg("listener cycle done")
	return res, nil
}

func (s *Service) ProcessPending(ctx context.Context, res *CycleResult) error {
	batch := s.opts.Batch
	if batch <= 0 {
		batch = 20
	}
	pending, err := s.ledger.ListEmailsByStatus(internal.EmailFetched, batch)
	if err != nil {
		return err
	}

	for _, email := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.opts.Provider != "" && email.Provider != s.opts.Provider {
			continue
		}
		status, err := s.processEmail(ctx, email)
		if err != nil {
			// left as fetched; retried next cycle
			return err
		}
		if err := s.ledger.UpdateEmailStatus(email.ID, status); err != nil {
			return err
		}
		switch status {
		case internal.EmailSubmitted:
			res.Submitted++
		case internal.EmailFailed:
			res.Failed++
		case internal.EmailSkipped:
			res.Skipped++
		}
	}
	return nil
}

// processEmail returns the ledger status for the message. An error means nothing
// was sent to the ERP and the message should stay pending. Once any group of the
// message reached the ERP it is never left pending, even when the run was cut short.
func (s *Service) processEmail(ctx context.Context, email internal.EmailRow) (string, error) {
	log := s.log.With().Int("emailId", email.ID).Str("messageId", email.MessageID).Logger()

	raw, err := os.ReadFile(email.RawRef)
	if err != nil {
		log.Error().Err(err).Msg("raw message unreadable")
		return internal.EmailFailed, nil
	}
	attachments, err := orders.SpreadsheetAttachments(raw)
	if err != nil {
		log.Error().Err(err).Msg("message could not be parsed")
		return internal.EmailFailed, nil
	}
	if len(attachments) == 0 {
		log.Info().Str("subject", email.Subject).Msg("no spreadsheet attachment")
		return internal.EmailSkipped, nil
	}

	status := internal.EmailSubmitted
	sent := false
	for i, att := range attachments {
		alog := log.With().Str("attachment", att.FileName).Logger()

		lines, err := orders.LoadBytes(att.FileName, att.Content)
		if err != nil {
			alog.Error().Err(err).Msg("attachment rejected")
			status = internal.EmailFailed
			continue
		}

		source := fmt.Sprintf("%s:%s#%s", email.Provider, email.MessageID, att.FileName)
		result, err := s.submitter.SubmitFrom(ctx, source, lines)
		sent = sent || (result != nil && len(result.Outcomes) > 0)
		if err != nil {
			if !sent && (errors.Is(err, erp.ErrAuthentication) || ctx.Err() != nil) {
				return "", err
			}
			alog.Error().Err(err).Bool("partial", sent).Msg("submission run aborted")
			status = internal.EmailFailed
			if result == nil {
				continue
			}
		}

		if s.opts.SummaryDir != "" && len(result.Outcomes) > 0 {
			name := fmt.Sprintf("%d_%s_%d.xlsx", email.ID, util.SanitizeFileName(email.MessageID), i+1)
			if err := pipeline.ExportOutcomesToXLSX(result, filepath.Join(s.opts.SummaryDir, name)); err != nil {
				alog.Warn().Err(err).Msg("summary export failed")
			}
		}
		if ctx.Err() != nil {
			break
		}
	}
	return status, nil
}
