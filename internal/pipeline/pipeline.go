// Package pipeline sequences the guardrail stages for a single ticket:
// classify, identify, authorize, resolve.
package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-copilot/internal/config"
	"github.com/spec-kit/ticket-copilot/internal/domain"
)

// Classifier labels ticket text.
type Classifier interface {
	Classify(ctx context.Context, text string) (domain.ClassificationResult, error)
}

// IdentityResolver maps a requester claim to an employee record.
type IdentityResolver interface {
	Resolve(ctx context.Context, claim string) (domain.EmployeeRecord, error)
}

// Authorizer decides whether an employee may raise a ticket category.
type Authorizer interface {
	Authorize(ctx context.Context, emp domain.EmployeeRecord, category string) (domain.AuthorizationDecision, error)
}

// Resolver produces an answer for an authorized ticket.
type Resolver interface {
	Resolve(ctx context.Context, ticket domain.TicketRequest) (domain.Resolution, error)
}

// Dependencies bundles the stage collaborators.
type Dependencies struct {
	Classifier Classifier
	Identity   IdentityResolver
	Authorizer Authorizer
	Resolver   Resolver
	Logger     *zap.Logger
}

// Pipeline holds immutable configuration and collaborator handles and is
// safe for concurrent ProcessTicket calls.
type Pipeline struct {
	classifier Classifier
	identity   IdentityResolver
	authorizer Authorizer
	resolver   Resolver
	threshold  float64
	timeouts   config.StageTimeouts
	logger     *zap.Logger
}

// New constructs a Pipeline.
func New(deps Dependencies, cfg config.PipelineConfig) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		classifier: deps.Classifier,
		identity:   deps.Identity,
		authorizer: deps.Authorizer,
		resolver:   deps.Resolver,
		threshold:  cfg.ClassifierThreshold,
		timeouts:   cfg.StageTimeouts,
		logger:     logger,
	}
}

// Result is a finished run together with the category picked for
// authorization. Category is empty when the run ended during classification.
type Result struct {
	Outcome  domain.TicketOutcome
	Category string
}

// ProcessTicket runs every stage at most once, in order, and returns exactly
// one terminal outcome. It never returns an error; failures are outcomes.
func (p *Pipeline) ProcessTicket(ctx context.Context, ticket domain.TicketRequest) domain.TicketOutcome {
	return p.Run(ctx, ticket).Outcome
}

// Run is ProcessTicket that also reports the category used for
// authorization, whether declared or inferred.
func (p *Pipeline) Run(ctx context.Context, ticket domain.TicketRequest) Result {
	start := time.Now()
	run := &run{p: p, ticket: ticket, logger: p.logger.With(zap.String("requester_id", ticket.RequesterID))}

	outcome := run.execute(ctx)

	run.logger.Info("ticket processed",
		zap.String("outcome", string(outcome.Kind())),
		zap.String("reason", domain.OutcomeReason(outcome)),
		zap.String("category", run.category),
		zap.Duration("duration", time.Since(start)))
	return Result{Outcome: outcome, Category: run.category}
}

// run carries the per-invocation state through the stages.
type run struct {
	p        *Pipeline
	ticket   domain.TicketRequest
	state    State
	category string
	logger   *zap.Logger
}

func (r *run) execute(ctx context.Context) domain.TicketOutcome {
	r.enter(StateStart)

	text := r.ticket.Text()
	if text == "" {
		return r.finish(domain.Rejected{Reason: "empty ticket"})
	}

	// Classifying
	if out, done := r.begin(ctx, StateClassifying); done {
		return out
	}
	var cls domain.ClassificationResult
	err := r.stage(ctx, r.p.timeouts.Classify, func(sctx context.Context) (err error) {
		cls, err = r.p.classifier.Classify(sctx, text)
		return err
	})
	if err != nil {
		return r.fail(ctx, err, domain.CauseClassifierUnavailable, "classifier unavailable")
	}
	switch {
	case cls.Label == domain.LabelOutOfScope:
		return r.finish(domain.Rejected{Reason: "out of scope", Label: cls.Label})
	case cls.Label == domain.LabelUnsafe:
		return r.finish(domain.Rejected{Reason: "unsafe", Label: cls.Label})
	case cls.Label != domain.LabelInScope:
		return r.finish(domain.ResolutionFailed{Reason: "classifier unavailable", Cause: domain.CauseClassifierUnavailable})
	case cls.Confidence < r.p.threshold:
		return r.finish(domain.Rejected{Reason: "classification confidence below threshold", Label: cls.Label})
	}
	r.category = r.pickCategory(cls)

	// Identifying
	if out, done := r.begin(ctx, StateIdentifying); done {
		return out
	}
	var emp domain.EmployeeRecord
	err = r.stage(ctx, r.p.timeouts.Lookup, func(sctx context.Context) (err error) {
		emp, err = r.p.identity.Resolve(sctx, r.ticket.RequesterID)
		return err
	})
	if errors.Is(err, domain.ErrIdentityResolution) {
		return r.finish(domain.IdentityError{Reason: "unknown employee"})
	}
	if err != nil {
		return r.fail(ctx, err, domain.CauseProviderError, "directory unavailable")
	}

	// Authorizing
	if out, done := r.begin(ctx, StateAuthorizing); done {
		return out
	}
	var decision domain.AuthorizationDecision
	err = r.stage(ctx, r.p.timeouts.Authorize, func(sctx context.Context) (err error) {
		decision, err = r.p.authorizer.Authorize(sctx, emp, r.category)
		return err
	})
	if err != nil {
		return r.fail(ctx, err, domain.CauseProviderError, "authorization unavailable")
	}
	switch decision.Verdict {
	case domain.VerdictAllow:
	case domain.VerdictEscalate:
		return r.finish(domain.Escalated{Reason: reasonOf(decision), RuleID: decision.RuleID})
	default:
		return r.finish(domain.Denied{Reason: reasonOf(decision), RuleID: decision.RuleID})
	}

	// Resolving
	if out, done := r.begin(ctx, StateResolving); done {
		return out
	}
	var res domain.Resolution
	err = r.stage(ctx, r.p.timeouts.Resolve, func(sctx context.Context) (err error) {
		res, err = r.p.resolver.Resolve(sctx, r.ticket)
		return err
	})
	if errors.Is(err, domain.ErrNoEvidence) {
		return r.finish(domain.ResolutionFailed{Reason: "no supporting knowledge-base evidence", Cause: domain.CauseNoEvidence})
	}
	if err != nil {
		return r.fail(ctx, err, domain.CauseProviderError, "answer generation failed")
	}
	return r.finish(domain.Resolved{Answer: res.Answer, Citations: res.Citations, Ungrounded: res.Ungrounded})
}

// pickCategory prefers the category declared on the request and falls back
// to the one inferred by the classifier.
func (r *run) pickCategory(cls domain.ClassificationResult) string {
	declared := r.ticket.DeclaredCategory()
	if declared == "" {
		return cls.Category
	}
	if cls.Category != "" && cls.Category != declared {
		r.logger.Warn("declared category differs from inferred",
			zap.String("declared", declared), zap.String("inferred", cls.Category))
	}
	return declared
}

// begin moves to the next state unless the caller already gave up.
func (r *run) begin(ctx context.Context, next State) (domain.TicketOutcome, bool) {
	if ctx.Err() != nil {
		return r.finish(cancelled()), true
	}
	r.enter(next)
	return nil, false
}

func (r *run) stage(ctx context.Context, timeout time.Duration, call func(context.Context) error) error {
	sctx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	err := call(sctx)
	r.logger.Debug("stage finished",
		zap.String("state", string(r.state)),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err))
	return err
}

// fail maps a collaborator error to ResolutionFailed. A parent context that
// is done wins over the stage's own cause.
func (r *run) fail(ctx context.Context, err error, cause domain.FailureCause, reason string) domain.TicketOutcome {
	if ctx.Err() != nil {
		return r.finish(cancelled())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		reason += ": stage timed out"
	}
	r.logger.Warn("stage failed", zap.String("state", string(r.state)), zap.Error(err))
	return r.finish(domain.ResolutionFailed{Reason: reason, Cause: cause})
}

func (r *run) enter(s State) {
	r.state = s
	r.logger.Debug("pipeline transition", zap.String("state", string(s)))
}

func (r *run) finish(o domain.TicketOutcome) domain.TicketOutcome {
	r.enter(TerminalState(o))
	return o
}

func cancelled() domain.TicketOutcome {
	return domain.ResolutionFailed{Reason: "request cancelled", Cause: domain.CauseCancelled}
}

func reasonOf(d domain.AuthorizationDecision) string {
	if d.Rationale != "" {
		return d.Rationale
	}
	return "rule " + d.RuleID
}
