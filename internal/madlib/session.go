package madlib

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "madlib-engine/internal/common/errors"
	"madlib-engine/internal/common/logger"
	"madlib-engine/internal/common/observability"
)

// State is the session's position in the generation pipeline.
type State string

const (
	StateIdle               State = "IDLE"
	StateGuardChecking      State = "GUARD_CHECKING"
	StateTemplateGenerating State = "TEMPLATE_GENERATING"
	StateFilling            State = "FILLING"
	StateAssembling         State = "ASSEMBLING"
	StatePersisting         State = "PERSISTING"
	StateDone               State = "DONE"
	StateRejected           State = "REJECTED"
	StateFailed             State = "FAILED"
)

// Result is what a finished session reports to the user. Content success
// and save status are tracked separately: a failed save never invalidates
// the completed madlib.
type Result struct {
	State           State
	Madlib          *CompletedMadlib
	SaveID          string
	Saved           bool
	SaveErr         error
	RejectionReason string
}

// Session sequences one madlib run: gate, template acquisition, concurrent
// fill, reassembly, best-effort persistence.
type Session struct {
	gate      SafetyGate
	templates TemplateGenerator
	fill      *Coordinator
	sink      SaveSink
	logger    logger.Logger
	tracer    trace.Tracer
	metrics   *observability.Observability

	state State
	err   error
}

// Deps carries the collaborators a session needs. Sink, Tracer and Metrics
// are optional.
type Deps struct {
	Gate      SafetyGate
	Templates TemplateGenerator
	Fill      *Coordinator
	Sink      SaveSink
	Logger    logger.Logger
	Tracer    trace.Tracer
	Metrics   *observability.Observability
}

func NewSession(deps Deps) *Session {
	return &Session{
		gate:      deps.Gate,
		templates: deps.Templates,
		fill:      deps.Fill,
		sink:      deps.Sink,
		logger: deps.Logger.With(map[string]interface{}{
			"component": "session",
		}),
		tracer:  deps.Tracer,
		metrics: deps.Metrics,
		state:   StateIdle,
	}
}

// State returns the session's current state.
func (s *Session) State() State {
	return s.state
}

// Err returns the error that moved the session to Failed or Rejected.
func (s *Session) Err() error {
	return s.err
}

func (s *Session) transition(to State) {
	s.logger.Info("state transition", map[string]interface{}{
		"from": string(s.state),
		"to":   string(to),
	})
	s.state = to
}

func (s *Session) startStage(ctx context.Context, name string) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

// Run drives one topic through the pipeline. A rejection or failure is
// returned as the error; the Result still carries whatever was produced
// (notably the completed madlib even when saving failed).
func (s *Session) Run(ctx context.Context, topic string) (*Result, error) {
	var rootSpan trace.Span
	if s.tracer != nil {
		ctx, rootSpan = s.tracer.Start(ctx, "madlib-session",
			trace.WithAttributes(attribute.String("topic", topic)))
		defer rootSpan.End()
	}

	result := &Result{}

	madlib, err := s.run(ctx, topic, result)
	if err != nil {
		if apperrors.IsGuardrailRejection(err) {
			s.transition(StateRejected)
			s.recordOutcome(ctx, observability.OutcomeRejected)
		} else {
			s.transition(StateFailed)
			s.recordOutcome(ctx, observability.OutcomeFailed)
		}
		s.err = err
		result.State = s.state
		return result, err
	}

	result.Madlib = madlib
	s.transition(StateDone)
	s.recordOutcome(ctx, observability.OutcomeDone)
	result.State = s.state
	return result, nil
}

func (s *Session) run(ctx context.Context, topic string, result *Result) (*CompletedMadlib, error) {
	// Guard check. Nothing else runs for a rejected topic.
	s.transition(StateGuardChecking)
	gateCtx, gateSpan := s.startStage(ctx, "guard-check")
	verdict, err := s.gate.Check(gateCtx, topic)
	gateSpan.End()
	if err != nil {
		return nil, err
	}
	if !verdict.FamilyFriendly {
		result.RejectionReason = verdict.Reasoning
		return nil, apperrors.NewGuardrailRejected(topic, verdict.Reasoning)
	}

	// Template acquisition.
	s.transition(StateTemplateGenerating)
	tmplCtx, tmplSpan := s.startStage(ctx, "template-generate")
	tmpl, err := s.templates.Generate(tmplCtx, topic)
	tmplSpan.End()
	if err != nil {
		return nil, err
	}

	// Concurrent fill, all-or-nothing.
	s.transition(StateFilling)
	fillCtx, fillSpan := s.startStage(ctx, "fill")
	start := time.Now()
	values, err := s.fill.Fill(fillCtx, tmpl)
	fillSpan.End()
	if s.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.RecordFillDuration(ctx, time.Since(start), status)
	}
	if err != nil {
		return nil, err
	}

	// Reassembly is synchronous and cannot fail; missing entries are an
	// invariant violation and only reported.
	s.transition(StateAssembling)
	completed, missing := Assemble(tmpl, values)
	for _, ref := range missing {
		s.logger.Error("slot missing from value mapping, substituted empty value", map[string]interface{}{
			"slot": ref.Marker(),
		})
	}

	// Best-effort persistence: failure is logged and recorded on the
	// result, the madlib stays complete.
	s.transition(StatePersisting)
	if s.sink != nil {
		saveCtx, saveSpan := s.startStage(ctx, "persist")
		id, err := s.sink.Save(saveCtx, completed)
		saveSpan.End()
		if err != nil {
			saveErr := apperrors.NewPersistenceFailed(err)
			s.logger.WithError(saveErr).Warn("madlib save failed", map[string]interface{}{
				"topic": topic,
			})
			result.SaveErr = saveErr
		} else {
			result.SaveID = id
			result.Saved = true
		}
	}

	return completed, nil
}

func (s *Session) recordOutcome(ctx context.Context, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordSession(ctx, outcome)
	}
}
