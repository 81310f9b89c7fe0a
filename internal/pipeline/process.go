package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"focorders/internal"
	"focorders/internal/erp"
	"focorders/internal/logging"
	"focorders/internal/metrics"
	"focorders/internal/orders"
	"focorders/internal/util"
)

// OrderAPI is the ERP session used by a run.
type OrderAPI interface {
	FetchToken(ctx context.Context) (string, error)
	CreateOrder(ctx context.Context, token string, request orders.SubmissionRequest) (*erp.Reply, error)
}

type Persister interface {
	Persist(ctx context.Context, orderNumber string, doc erp.OrderDocument, group internal.OrderGroup) error
}

type RunLog interface {
	InsertRun(runID, source string, timings map[string]float64, counts map[string]int) error
}

type SubmissionService struct {
	api       OrderAPI
	persister Persister
	builder   *orders.Builder
	log       zerolog.Logger
	metrics   *metrics.Recorder
	runs      RunLog
	now       func() time.Time
}

func NewSubmissionService(api OrderAPI, persister Persister, builder *orders.Builder, log zerolog.Logger) *SubmissionService {
	return &SubmissionService{
		api:       api,
		persister: persister,
		builder:   builder,
		log:       logging.For(log, "submit"),
		now:       time.Now,
	}
}

func (s *SubmissionService) WithClock(now func() time.Time) *SubmissionService {
	s.now = now
	return s
}

func (s *SubmissionService) WithMetrics(m *metrics.Recorder) *SubmissionService {
	s.metrics = m
	return s
}

func (s *SubmissionService) WithRunLog(runs RunLog) *SubmissionService {
	s.runs = runs
	return s
}

type RunResult struct {
	RunID         string
	Source        string
	EffectiveDate string
	Outcomes      []internal.SubmissionOutcome
	Duration      time.Duration
}

func (r *RunResult) Succeeded() int { return r.count(internal.OutcomeSuccess) }

func (r *RunResult) Failed() int { return r.count(internal.OutcomeFailed) }

func (r *RunResult) PersistFailures() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.PersistError != nil {
			n++
		}
	}
	return n
}

func (r *RunResult) count(status internal.OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

func (r *RunResult) Counts() map[string]int {
	return map[string]int{
		"groups":          len(r.Outcomes),
		"success":         r.Succeeded(),
		"failed":          r.Failed(),
		"persistFailures": r.PersistFailures(),
	}
}

// PlannedRequest is a built but unsent order document.
type PlannedRequest struct {
	Group   internal.OrderGroup
	Request orders.SubmissionRequest
}

// Plan groups the lines and builds every request without touching the network.
func (s *SubmissionService) Plan(lines []internal.OrderLine) (string, []PlannedRequest) {
	effectiveDate := s.builder.EffectiveDate(s.now())
	groups := orders.GroupLines(lines)
	out := make([]PlannedRequest, 0, len(groups))
	for _, g := range groups {
		out = append(out, PlannedRequest{Group: g, Request: s.builder.Build(g, effectiveDate)})
	}
	return effectiveDate, out
}

func (s *SubmissionService) Submit(ctx context.Context, lines []internal.OrderLine) (*RunResult, error) {
	return s.SubmitFrom(ctx, "", lines)
}

// SubmitFrom runs one batch. source labels the run in logs and the run log.
// Per-group rejections become FAILED outcomes; only a token failure or
// cancellation ends the run early.
func (s *SubmissionService) SubmitFrom(ctx context.Context, source string, lines []internal.OrderLine) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{RunID: uuid.NewString(), Source: source}
	log := s.log.With().Str(logging.RunID, result.RunID).Str(logging.Source, source).Logger()

	groups := orders.GroupLines(lines)
	if len(groups) == 0 {
		log.Info().Msg("no order lines, nothing to submit")
		s.recordRun(log, result, start)
		return result, nil
	}

	tokenStart := time.Now()
	token, err := s.api.FetchToken(ctx)
	s.metrics.TokenFetch()
	s.metrics.ObserveRequest("token", time.Since(tokenStart))
	if err != nil {
		log.Error().Err(err).Msg("csrf token fetch failed")
		s.recordRun(log, result, start)
		return nil, fmt.Errorf("fetch csrf token: %w", err)
	}

	result.EffectiveDate = s.builder.EffectiveDate(s.now())
	log.Info().Int("groups", len(groups)).Str("effectiveDate", result.EffectiveDate).Msg("submitting order groups")

	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			log.Warn().Int("sent", len(result.Outcomes)).Int("groups", len(groups)).Msg("run cancelled")
			s.recordRun(log, result, start)
			return result, err
		}

		outcome := s.submitGroup(ctx, log, token, result.EffectiveDate, group)
		result.Outcomes = append(result.Outcomes, outcome)
		s.metrics.Group(string(outcome.Status))
	}

	s.recordRun(log, result, start)
	log.Info().Int("success", result.Succeeded()).Int("failed", result.Failed()).Dur("took", result.Duration).Msg("run finished")
	return result, nil
}

func (s *SubmissionService) submitGroup(ctx context.Context, log zerolog.Logger, token, effectiveDate string, group internal.OrderGroup) internal.SubmissionOutcome {
	outcome := internal.SubmissionOutcome{
		SoldToParty: group.Key.SoldToParty,
		PONumber:    group.Key.PONumber,
		ItemCount:   len(group.Lines),
	}
	glog := log.With().Str("soldTo", group.Key.SoldToParty).Str("po", group.Key.PONumber).Logger()

	request := s.builder.Build(group, effectiveDate)
	reqStart := time.Now()
	reply, err := s.api.CreateOrder(ctx, token, request)
	s.metrics.ObserveRequest("create", time.Since(reqStart))
	if err != nil {
		return failed(glog, outcome, err.Error(), err.Error())
	}
	outcome.HTTPStatus = reply.StatusCode

	if !reply.Created() {
		return failed(glog, outcome, string(reply.Body), erp.Summarize(reply.ContentType, reply.Body))
	}

	doc, err := erp.DecodeOrder(reply.Body)
	if err == nil && doc.OrderNumber() == "" {
		err = errors.New("order response has no SalesOrderWithoutCharge")
	}
	if err != nil {
		return failed(glog, outcome, string(reply.Body), err.Error())
	}

	orderNumber := doc.OrderNumber()
	outcome.Status = internal.OutcomeSuccess
	outcome.OrderNumber = util.StringPtr(orderNumber)
	outcome.Message = fmt.Sprintf("created order %s", orderNumber)
	glog.Info().Str("order", orderNumber).Int("items", outcome.ItemCount).Msg("order created")

	if err := s.persister.Persist(ctx, orderNumber, doc, group); err != nil {
		s.metrics.PersistFailure()
		outcome.PersistError = util.StringPtr(err.Error())
		glog.Error().Err(err).Str("order", orderNumber).Msg("order created but warehouse write failed")
	}
	return outcome
}

func failed(log zerolog.Logger, outcome internal.SubmissionOutcome, diagnostic, message string) internal.SubmissionOutcome {
	outcome.Status = internal.OutcomeFailed
	if diagnostic == "" {
		diagnostic = fmt.Sprintf("status %d with empty body", outcome.HTTPStatus)
	}
	outcome.Error = util.StringPtr(diagnostic)
	outcome.Message = message
	log.Error().Int("status", outcome.HTTPStatus).Str("reason", message).Msg("order rejected")
	return outcome
}

func (s *SubmissionService) recordRun(log zerolog.Logger, result *RunResult, start time.Time) {
	result.Duration = time.Since(start)
	if s.runs == nil {
		return
	}
	timings := map[string]float64{"totalMs": float64(result.Duration.Milliseconds())}
	if err := s.runs.InsertRun(result.RunID, result.Source, timings, result.Counts()); err != nil {
		log.Warn().Err(err).Msg("run log write failed")
	}
}
