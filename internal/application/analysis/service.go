package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bryanwahyu/image-identifier/internal/application"
	"github.com/bryanwahyu/image-identifier/internal/domain/ai"
	domain "github.com/bryanwahyu/image-identifier/internal/domain/analysis"
	"github.com/bryanwahyu/image-identifier/internal/domain/audit"
)

const auditSaveTimeout = 3 * time.Second

// PromptBuilder turns a validated payload into a model request.
type PromptBuilder func(domain.ImagePayload) domain.ModelRequest

// Observer receives one observation per pipeline call.
type Observer interface {
	ObserveAnalysis(outcome string, d time.Duration)
}

// Service runs the analysis pipeline: validate input, build prompt, invoke model, normalize output.
// It keeps no state between calls and is safe for concurrent use.
type Service struct {
	invoker  ai.Invoker
	build    PromptBuilder
	events   audit.Repository
	observer Observer
	clock    application.Clock
	timeout  time.Duration
	log      zerolog.Logger
}

type Option func(*Service)

// WithAudit records a metadata-only event after every call.
func WithAudit(repo audit.Repository) Option { return func(s *Service) { s.events = repo } }

func WithObserver(o Observer) Option { return func(s *Service) { s.observer = o } }

func WithClock(c application.Clock) Option { return func(s *Service) { s.clock = c } }

// WithTimeout bounds each model invocation. Zero disables the bound.
func WithTimeout(d time.Duration) Option { return func(s *Service) { s.timeout = d } }

func WithLogger(l zerolog.Logger) Option { return func(s *Service) { s.log = l } }

func NewService(invoker ai.Invoker, build PromptBuilder, opts ...Option) *Service {
	s := &Service{
		invoker: invoker,
		build:   build,
		clock:   application.SystemClock{},
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AnalyzeJSON decodes a raw request body and analyzes it.
func (s *Service) AnalyzeJSON(ctx context.Context, body []byte) (domain.Result, error) {
	in, err := domain.DecodeInput(body)
	if err != nil {
		s.finish(ctx, s.clock.Now(), domain.ImagePayload{}, domain.Result{}, err)
		return domain.Result{}, err
	}
	return s.Analyze(ctx, in)
}

// Analyze is the pipeline entry point. The first failing stage short-circuits.
func (s *Service) Analyze(ctx context.Context, in domain.Input) (domain.Result, error) {
	start := s.clock.Now()

	payload, err := domain.ValidateInput(in)
	if err != nil {
		s.finish(ctx, start, payload, domain.Result{}, err)
		return domain.Result{}, err
	}

	req := s.build(payload)

	raw, err := s.invoke(ctx, req)
	if err != nil {
		s.finish(ctx, start, payload, domain.Result{}, err)
		return domain.Result{}, err
	}

	res, err := domain.Normalize(raw)
	if err != nil {
		s.finish(ctx, start, payload, domain.Result{}, err)
		return domain.Result{}, err
	}

	s.finish(ctx, start, payload, res, nil)
	return res, nil
}

// invoke makes exactly one model call, without retry.
func (s *Service) invoke(ctx context.Context, req domain.ModelRequest) (domain.RawOutput, error) {
	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := s.invoker.Invoke(callCtx, req)
	if err == nil {
		return raw, nil
	}
	switch {
	case errors.Is(err, ai.ErrQuotaExceeded):
		return "", domain.Invocation("ai quota exceeded", err)
	case errors.Is(err, context.DeadlineExceeded):
		return "", domain.Invocation("model invocation timed out", err)
	case errors.Is(err, context.Canceled):
		return "", domain.Invocation("model invocation canceled", err)
	default:
		return "", domain.Invocation("model invocation failed", err)
	}
}

func (s *Service) finish(ctx context.Context, start time.Time, p domain.ImagePayload, res domain.Result, err error) {
	elapsed := application.Since(s.clock, start)
	outcome := audit.OutcomeOf(err)

	logEvt := s.log.Info()
	if err != nil {
		logEvt = s.log.Warn().Err(err)
	}
	logEvt.
		Str("outcome", string(outcome)).
		Str("mime_type", p.MIMEType).
		Int("image_bytes", p.Size()).
		Dur("duration", elapsed).
		Msg("image analysis finished")

	if s.observer != nil {
		s.observer.ObserveAnalysis(string(outcome), elapsed)
	}
	if s.events == nil {
		return
	}

	e := &audit.Event{
		ID:         audit.EventID(uuid.New().String()),
		MIMEType:   p.MIMEType,
		ImageBytes: p.Size(),
		Outcome:    outcome,
		Counts:     res.Counts(),
		Model:      s.invoker.Model(),
		DurationMS: elapsed.Milliseconds(),
		CreatedAt:  start.UTC(),
	}
	if err != nil {
		e.Message = err.Error()
	}
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditSaveTimeout)
	defer cancel()
	if serr := s.events.Save(saveCtx, e); serr != nil {
		s.log.Error().Err(serr).Str("event_id", string(e.ID)).Msg("failed to save audit event")
	}
}

// ListEvents returns a page of audit events, or an empty page when auditing is disabled.
func (s *Service) ListEvents(ctx context.Context, page, pageSize int) (audit.PaginatedResult, error) {
	if s.events == nil {
		return audit.NewPaginatedResult(nil, page, pageSize, 0), nil
	}
	return s.events.Paginate(ctx, page, pageSize)
}
