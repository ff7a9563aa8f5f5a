package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-copilot/internal/config"
	"github.com/spec-kit/ticket-copilot/internal/domain"
)

// recorder logs the order collaborators were called in.
type recorder struct{ calls []string }

type fakeClassifier struct {
	rec    *recorder
	result domain.ClassificationResult
	err    error
	block  bool
}

func (f *fakeClassifier) Classify(ctx context.Context, _ string) (domain.ClassificationResult, error) {
	f.rec.calls = append(f.rec.calls, "classify")
	if f.block {
		<-ctx.Done()
		return domain.ClassificationResult{}, ctx.Err()
	}
	return f.result, f.err
}

type fakeIdentity struct {
	rec     *recorder
	records map[string]domain.EmployeeRecord
	err     error
}

func (f *fakeIdentity) Resolve(_ context.Context, claim string) (domain.EmployeeRecord, error) {
	f.rec.calls = append(f.rec.calls, "identify")
	if f.err != nil {
		return domain.EmployeeRecord{}, f.err
	}
	rec, ok := f.records[claim]
	if !ok {
		return domain.EmployeeRecord{}, domain.ErrEmployeeNotFound
	}
	return rec, nil
}

type fakeAuthorizer struct {
	rec      *recorder
	verdicts map[string]domain.AuthorizationDecision
	category string
}

func (f *fakeAuthorizer) Authorize(_ context.Context, emp domain.EmployeeRecord, category string) (domain.AuthorizationDecision, error) {
	f.rec.calls = append(f.rec.calls, "authorize")
	f.category = category
	if d, ok := f.verdicts[string(emp.Role)+"/"+category]; ok {
		return d, nil
	}
	return domain.AuthorizationDecision{Verdict: domain.VerdictDeny, RuleID: "default-deny", Rationale: "no applicable authorization rule"}, nil
}

type fakeResolver struct {
	rec    *recorder
	result domain.Resolution
	err    error
	cancel context.CancelFunc
}

func (f *fakeResolver) Resolve(_ context.Context, _ domain.TicketRequest) (domain.Resolution, error) {
	f.rec.calls = append(f.rec.calls, "resolve")
	if f.cancel != nil {
		f.cancel()
		return domain.Resolution{}, context.Canceled
	}
	return f.result, f.err
}

type harness struct {
	rec        *recorder
	classifier *fakeClassifier
	identity   *fakeIdentity
	authorizer *fakeAuthorizer
	resolver   *fakeResolver
}

func newHarness() *harness {
	rec := &recorder{}
	return &harness{
		rec: rec,
		classifier: &fakeClassifier{rec: rec, result: domain.ClassificationResult{
			Label: domain.LabelInScope, Confidence: 0.9, Category: "vpn_access",
		}},
		identity: &fakeIdentity{rec: rec, records: map[string]domain.EmployeeRecord{
			"E001": {ID: "E001", Role: domain.RoleStaff, Department: "engineering"},
			"E007": {ID: "E007", Role: domain.RoleAdmin, Department: "it"},
		}},
		authorizer: &fakeAuthorizer{rec: rec, verdicts: map[string]domain.AuthorizationDecision{
			"ADMIN/vpn_access":     {Verdict: domain.VerdictAllow, RuleID: "R-vpn-admin", Rationale: "admins manage VPN"},
			"STAFF/access_request": {Verdict: domain.VerdictEscalate, RuleID: "R2", Rationale: "needs manager approval"},
		}},
		resolver: &fakeResolver{rec: rec, result: domain.Resolution{
			Answer:    "Reset the VPN profile [kb-vpn-1] and reconnect [kb-vpn-2].",
			Citations: []string{"kb-vpn-1", "kb-vpn-2"},
			Passages:  []domain.RetrievedPassage{{DocumentID: "kb-vpn-1"}, {DocumentID: "kb-vpn-2"}},
		}},
	}
}

func (h *harness) pipeline(cfg config.PipelineConfig) *Pipeline {
	return New(Dependencies{
		Classifier: h.classifier,
		Identity:   h.identity,
		Authorizer: h.authorizer,
		Resolver:   h.resolver,
	}, cfg)
}

func testConfig() config.PipelineConfig {
	return config.PipelineConfig{
		ClassifierThreshold: 0.5,
		TopK:                4,
		StageTimeouts: config.StageTimeouts{
			Classify:  time.Second,
			Lookup:    time.Second,
			Authorize: time.Second,
			Resolve:   time.Second,
		},
	}
}

func TestOutOfScopeTicketIsRejected(t *testing.T) {
	h := newHarness()
	h.classifier.result = domain.ClassificationResult{Label: domain.LabelOutOfScope, Confidence: 0.97, Category: "off_scope"}

	out := h.pipeline(testConfig()).ProcessTicket(context.Background(),
		domain.TicketRequest{RequesterID: "E001", Body: "Can I get a pet octopus for the office?"})

	assert.Equal(t, domain.Rejected{Reason: "out of scope", Label: domain.LabelOutOfScope}, out)
	assert.Equal(t, []string{"classify"}, h.rec.calls)
}

func TestUnknownEmployeeIsIdentityError(t *testing.T) {
	h := newHarness()
	out := h.pipeline(testConfig()).ProcessTicket(context.Background(),
		domain.TicketRequest{RequesterID: "E999", Body: "My laptop will not boot"})

	assert.Equal(t, domain.IdentityError{Reason: "unknown employee"}, out)
	assert.Equal(t, []string{"classify", "identify"}, h.rec.calls)
}

func TestUnmatchedCategoryIsDenied(t *testing.T) {
	h := newHarness()
	out := h.pipeline(testConfig()).ProcessTicket(context.Background(),
		domain.TicketRequest{RequesterID: "E001", Body: "Reset the admin password", Category: "admin_password_reset"})

	denied, ok := out.(domain.Denied)
	require.True(t, ok, "got %#v", out)
	assert.Equal(t, "default-deny", denied.RuleID)
	assert.Equal(t, []string{"classify", "identify", "authorize"}, h.rec.calls)
}

func TestAllowedTicketIsResolvedWithCitations(t *testing.T) {
	h := newHarness()
	out := h.pipeline(testConfig()).ProcessTicket(context.Background(),
		domain.TicketRequest{RequesterID: "E007", Subject: "VPN", Body: "Need VPN access fixed", Category: "vpn_access"})

	resolved, ok := out.(domain.Resolved)
	require.True(t, ok, "got %#v", out)
	assert.Equal(t, []string{"kb-vpn-1", "kb-vpn-2"}, resolved.Citations)
	assert.NotEmpty(t, resolved.Answer)
	assert.Equal(t, []string{"classify", "identify", "authorize", "resolve"}, h.rec.calls)
}

func TestEscalateVerdict(t *testing.T) {
	h := newHarness()
	out := h.pipeline(testConfig()).ProcessTicket(context.Background(),
		domain.TicketRequest{RequesterID: "E001", Body: "Need Jira admin rights", Category: "access_request"})

	assert.Equal(t, domain.Escalated{Reason: "needs manager approval", RuleID: "R2"}, out)
	assert.NotContains(t, h.rec.calls, "resolve")
}

func TestUnsafeAndLowConfidence(t *testing.T) {
	h := newHarness()
	h.classifier.result = domain.ClassificationResult{Label: domain.LabelUnsafe, Confidence: 0.99}
	out := h.pipeline(testConfig()).ProcessTicket(context.Background(), domain.TicketRequest{RequesterID: "E007", Body: "x"})
	assert.Equal(t, domain.Rejected{Reason: "unsafe", Label: domain.LabelUnsafe}, out)

	h = newHarness()
	h.classifier.result.Confidence = 0.3
	out = h.pipeline(testConfig()).ProcessTicket(context.Background(), domain.TicketRequest{RequesterID: "E007", Body: "x"})
	assert.Equal(t, domain.OutcomeRejected, out.Kind())
	assert.Equal(t, "classification confidence below threshold", domain.OutcomeReason(out))
	assert.Equal(t, []string{"classify"}, h.rec.calls)
}

func TestEmptyTicketSkipsClassifier(t *testing.T) {
	h := newHarness()
	out := h.pipeline(testConfig()).ProcessTicket(context.Background(), domain.TicketRequest{RequesterID: "E007", Subject: " ", Body: "\n"})
	assert.Equal(t, domain.Rejected{Reason: "empty ticket"}, out)
	assert.Empty(t, h.rec.calls)
}

func TestClassifierFailureFailsClosed(t *testing.T) {
	h := newHarness()
	h.classifier.err = domain.ErrClassifierUnavailable
	out := h.pipeline(testConfig()).ProcessTicket(context.Background(), domain.TicketRequest{RequesterID: "E007", Body: "VPN"})

	failed, ok := out.(domain.ResolutionFailed)
	require.True(t, ok)
	assert.Equal(t, domain.CauseClassifierUnavailable, failed.Cause)
	assert.Equal(t, []string{"classify"}, h.rec.calls)
}

func TestClassifierTimeout(t *testing.T) {
	h := newHarness()
	h.classifier.block = true
	cfg := testConfig()
	cfg.StageTimeouts.Classify = 10 * time.Millisecond

	out := h.pipeline(cfg).ProcessTicket(context.Background(), domain.TicketRequest{RequesterID: "E007", Body: "VPN"})
	failed, ok := out.(domain.ResolutionFailed)
	require.True(t, ok)
	assert.Equal(t, domain.CauseClassifierUnavailable, failed.Cause)
	assert.Contains(t, failed.Reason, "timed out")
}

func TestDirectoryFailureIsProviderError(t *testing.T) {
	h := newHarness()
	h.identity.err = errors.Join(domain.ErrProvider, errors.New("dial tcp: refused"))
	out := h.pipeline(testConfig()).ProcessTicket(context.Background(), domain.TicketRequest{RequesterID: "E007", Body: "VPN"})

	assert.Equal(t, domain.CauseProviderError, out.(domain.ResolutionFailed).Cause)
	assert.NotContains(t, h.rec.calls, "authorize")
}

func TestResolverOutcomes(t *testing.T) {
	h := newHarness()
	h.resolver.err = domain.ErrNoEvidence
	out := h.pipeline(testConfig()).ProcessTicket(context.Background(),
		domain.TicketRequest{RequesterID: "E007", Body: "VPN", Category: "vpn_access"})
	assert.Equal(t, domain.CauseNoEvidence, out.(domain.ResolutionFailed).Cause)

	h = newHarness()
	h.resolver.err = domain.ErrProvider
	out = h.pipeline(testConfig()).ProcessTicket(context.Background(),
		domain.TicketRequest{RequesterID: "E007", Body: "VPN", Category: "vpn_access"})
	assert.Equal(t, domain.CauseProviderError, out.(domain.ResolutionFailed).Cause)
}

func TestCancelledBeforeStart(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := h.pipeline(testConfig()).ProcessTicket(ctx, domain.TicketRequest{RequesterID: "E007", Body: "VPN"})
	assert.Equal(t, domain.CauseCancelled, out.(domain.ResolutionFailed).Cause)
	assert.Empty(t, h.rec.calls)
}

func TestCancelledDuringStage(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	h.resolver.cancel = cancel

	out := h.pipeline(testConfig()).ProcessTicket(ctx,
		domain.TicketRequest{RequesterID: "E007", Body: "VPN", Category: "vpn_access"})
	assert.Equal(t, domain.CauseCancelled, out.(domain.ResolutionFailed).Cause)
}

func TestInferredCategoryUsedWhenNoneDeclared(t *testing.T) {
	h := newHarness()
	h.pipeline(testConfig()).ProcessTicket(context.Background(), domain.TicketRequest{RequesterID: "E007", Body: "VPN"})
	assert.Equal(t, "vpn_access", h.authorizer.category)

	h = newHarness()
	h.pipeline(testConfig()).ProcessTicket(context.Background(),
		domain.TicketRequest{RequesterID: "E007", Body: "VPN", Category: " Hardware_Issue "})
	assert.Equal(t, "hardware_issue", h.authorizer.category)
}

func TestRunReportsCategoryUsed(t *testing.T) {
	h := newHarness()
	res := h.pipeline(testConfig()).Run(context.Background(), domain.TicketRequest{RequesterID: "E007", Body: "VPN"})
	assert.Equal(t, domain.OutcomeResolved, res.Outcome.Kind())
	assert.Equal(t, "vpn_access", res.Category)

	h = newHarness()
	res = h.pipeline(testConfig()).Run(context.Background(),
		domain.TicketRequest{RequesterID: "E007", Body: "VPN", Category: " Hardware_Issue "})
	assert.Equal(t, "hardware_issue", res.Category)

	h = newHarness()
	h.classifier.result = domain.ClassificationResult{Label: domain.LabelOutOfScope, Confidence: 0.9}
	res = h.pipeline(testConfig()).Run(context.Background(), domain.TicketRequest{RequesterID: "E007", Body: "lunch"})
	assert.Equal(t, domain.OutcomeRejected, res.Outcome.Kind())
	assert.Empty(t, res.Category)
}

func TestTerminalState(t *testing.T) {
	assert.Equal(t, StateDenied, TerminalState(domain.Denied{}))
	assert.True(t, StateResolutionFailed.Terminal())
	assert.False(t, StateAuthorizing.Terminal())
}
