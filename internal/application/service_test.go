package application_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stylingadventures/moderation-service/internal/application"
	"github.com/stylingadventures/moderation-service/internal/domain"
	"github.com/stylingadventures/moderation-service/internal/ports"
)

type fakeSubmissions struct {
	byID map[string]domain.ContentSubmission
}

func (f *fakeSubmissions) Create(_ context.Context, s domain.ContentSubmission) error {
	if _, ok := f.byID[s.ItemID]; ok {
		return domain.ErrConflict
	}
	f.byID[s.ItemID] = s
	return nil
}

func (f *fakeSubmissions) GetByID(_ context.Context, itemID string) (domain.ContentSubmission, error) {
	s, ok := f.byID[itemID]
	if !ok {
		return domain.ContentSubmission{}, domain.ErrNotFound
	}
	return s, nil
}

func (f *fakeSubmissions) SetProcessedMediaKey(_ context.Context, itemID, key string, at time.Time) error {
	s, ok := f.byID[itemID]
	if !ok {
		return domain.ErrNotFound
	}
	s.ProcessedMediaKey = key
	s.UpdatedAt = at
	f.byID[itemID] = s
	return nil
}

func (f *fakeSubmissions) UpdateStatus(_ context.Context, itemID string, status domain.SubmissionStatus, reason string, at time.Time) error {
	s, ok := f.byID[itemID]
	if !ok {
		return domain.ErrNotFound
	}
	s.Status = status
	s.StatusReason = reason
	s.UpdatedAt = at
	f.byID[itemID] = s
	return nil
}

func (f *fakeSubmissions) ListByStatus(_ context.Context, status domain.SubmissionStatus, limit int) ([]domain.ContentSubmission, error) {
	var out []domain.ContentSubmission
	for _, s := range f.byID {
		if s.Status == status && len(out) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeStrikes struct {
	items []domain.Strike
}

func (f *fakeStrikes) Record(_ context.Context, strike domain.Strike) error {
	f.items = append(f.items, strike)
	return nil
}

func (f *fakeStrikes) ListSince(_ context.Context, userID string, since time.Time) ([]domain.Strike, error) {
	var out []domain.Strike
	for _, s := range f.items {
		if s.UserID == userID && s.RecordedAt.After(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeApprovals struct {
	byCorrelation map[string]domain.ApprovalTask
}

func (f *fakeApprovals) CreatePending(_ context.Context, task domain.ApprovalTask) error {
	if existing, ok := f.byCorrelation[task.CorrelationID]; ok && existing.Status == domain.ApprovalPending {
		return domain.ErrConflict
	}
	f.byCorrelation[task.CorrelationID] = task
	return nil
}

func (f *fakeApprovals) GetPending(_ context.Context, correlationID string) (domain.ApprovalTask, error) {
	task, ok := f.byCorrelation[correlationID]
	if !ok || task.Status != domain.ApprovalPending {
		return domain.ApprovalTask{}, domain.ErrApprovalNotPending
	}
	return task, nil
}

func (f *fakeApprovals) CompletePending(_ context.Context, correlationID, decision, reason, reviewedBy string, at time.Time) (domain.ApprovalTask, error) {
	task, ok := f.byCorrelation[correlationID]
	if !ok || task.Status != domain.ApprovalPending {
		return domain.ApprovalTask{}, domain.ErrApprovalNotPending
	}
	task.Status = domain.ApprovalCompleted
	task.Decision = decision
	task.Reason = reason
	task.ReviewedBy = reviewedBy
	task.CompletedAt = &at
	f.byCorrelation[correlationID] = task
	return task, nil
}

func (f *fakeApprovals) ExpirePending(_ context.Context, correlationID string, at time.Time) (domain.ApprovalTask, error) {
	task, ok := f.byCorrelation[correlationID]
	if !ok || task.Status != domain.ApprovalPending {
		return domain.ApprovalTask{}, domain.ErrApprovalNotPending
	}
	task.Status = domain.ApprovalExpired
	task.CompletedAt = &at
	f.byCorrelation[correlationID] = task
	return task, nil
}

func (f *fakeApprovals) ListPending(_ context.Context, limit int) ([]domain.ApprovalTask, error) {
	var out []domain.ApprovalTask
	for _, task := range f.byCorrelation {
		if task.Status == domain.ApprovalPending && len(out) < limit {
			out = append(out, task)
		}
	}
	return out, nil
}

func (f *fakeApprovals) ListExpiredPending(_ context.Context, now time.Time, limit int) ([]domain.ApprovalTask, error) {
	var out []domain.ApprovalTask
	for _, task := range f.byCorrelation {
		if task.Status == domain.ApprovalPending && task.Expired(now) && len(out) < limit {
			out = append(out, task)
		}
	}
	return out, nil
}

type fakeRuns struct {
	byID   map[string]domain.WorkflowRun
	claims map[string]time.Time
}

func (f *fakeRuns) Create(_ context.Context, run domain.WorkflowRun) error {
	f.byID[run.RunID] = run
	return nil
}

func (f *fakeRuns) GetByID(_ context.Context, runID string) (domain.WorkflowRun, error) {
	run, ok := f.byID[runID]
	if !ok {
		return domain.WorkflowRun{}, domain.ErrNotFound
	}
	return run, nil
}

func (f *fakeRuns) GetByItemID(_ context.Context, itemID string) (domain.WorkflowRun, error) {
	for _, run := range f.byID {
		if run.ItemID == itemID {
			return run, nil
		}
	}
	return domain.WorkflowRun{}, domain.ErrNotFound
}

func (f *fakeRuns) ClaimRunnable(_ context.Context, limit int, _ string, claimUntil time.Time) ([]domain.WorkflowRun, error) {
	now := time.Now()
	var out []domain.WorkflowRun
	for id, run := range f.byID {
		if len(out) >= limit {
			break
		}
		if run.Status != domain.RunRunning || run.NextAttemptAt.After(now) {
			continue
		}
		if held, ok := f.claims[id]; ok && held.After(now) {
			continue
		}
		f.claims[id] = claimUntil
		out = append(out, run)
	}
	return out, nil
}

func (f *fakeRuns) Advance(_ context.Context, run domain.WorkflowRun, fromState domain.WorkflowState) error {
	stored, ok := f.byID[run.RunID]
	if !ok || stored.State != fromState {
		return domain.ErrConcurrentUpdate
	}
	f.byID[run.RunID] = run
	delete(f.claims, run.RunID)
	return nil
}

type fakeAudit struct {
	records []ports.AuditRecord
}

func (f *fakeAudit) Append(_ context.Context, record ports.AuditRecord) error {
	f.records = append(f.records, record)
	return nil
}

func (f *fakeAudit) ListByCorrelation(_ context.Context, correlationID string, limit int) ([]ports.AuditRecord, error) {
	var out []ports.AuditRecord
	for _, r := range f.records {
		if r.CorrelationID == correlationID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeOutbox struct {
	events []ports.OutboxEvent
}

func (f *fakeOutbox) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutbox) ClaimUnpublished(_ context.Context, _ int, _ string, _ time.Time) ([]ports.OutboxRecord, error) {
	return nil, nil
}

func (f *fakeOutbox) MarkPublished(_ context.Context, _ uuid.UUID, _ time.Time) error { return nil }

func (f *fakeOutbox) MarkFailed(_ context.Context, _ uuid.UUID, _ string, _ time.Time) error {
	return nil
}

func (f *fakeOutbox) types() []string {
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.EventType)
	}
	return out
}

func (f *fakeOutbox) has(eventType string) bool {
	for _, e := range f.events {
		if e.EventType == eventType {
			return true
		}
	}
	return false
}

type fakeSegmenter struct {
	err   error
	calls int
}

func (f *fakeSegmenter) Segment(_ context.Context, rawKey string) (domain.SegmentationResult, error) {
	f.calls++
	if f.err != nil {
		return domain.SegmentationResult{}, f.err
	}
	idx := strings.LastIndex(rawKey, "/")
	return domain.SegmentationResult{
		InputKey:  rawKey,
		OutputKey: "processed/" + rawKey[idx+1:],
	}, nil
}

type fakeScorer struct {
	score domain.ImageScore
}

func (f *fakeScorer) Score(_ context.Context, _ string) (domain.ImageScore, error) {
	return f.score, nil
}

type fakePII struct {
	result domain.PIIResult
}

func (f *fakePII) Scan(_ context.Context, _ domain.RunPayload) (domain.PIIResult, error) {
	return f.result, nil
}

type fakeObjects struct {
	copies map[string]string
}

func (f *fakeObjects) Copy(_ context.Context, fromKey, toKey string) error {
	f.copies[fromKey] = toKey
	return nil
}

type fakeRiskFlags struct {
	flagged map[string]bool
}

func (f *fakeRiskFlags) MinorsRisk(_ context.Context, userID string) (bool, error) {
	return f.flagged[userID], nil
}

func (f *fakeRiskFlags) SetMinorsRisk(_ context.Context, userID string, flagged bool) error {
	f.flagged[userID] = flagged
	return nil
}

type fakeNotifier struct {
	err         error
	notified    [][]byte
	broadcasted [][]byte
}

func (f *fakeNotifier) NotifyReviewRequested(_ context.Context, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.notified = append(f.notified, payload)
	return nil
}

func (f *fakeNotifier) BroadcastReviewRequested(_ context.Context, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.broadcasted = append(f.broadcasted, payload)
	return nil
}

type fixture struct {
	service     *application.Service
	submissions *fakeSubmissions
	strikes     *fakeStrikes
	approvals   *fakeApprovals
	runs        *fakeRuns
	audit       *fakeAudit
	outbox      *fakeOutbox
	segmenter   *fakeSegmenter
	scorer      *fakeScorer
	objects     *fakeObjects
	riskFlags   *fakeRiskFlags
	notifier    *fakeNotifier
}

func defaultTestConfig() application.Config {
	return application.Config{
		ReviewExpiry:    7 * 24 * time.Hour,
		MaxTaskAttempts: 3,
		RetryBaseDelay:  0,
		ClaimTTL:        time.Minute,
		PublishedPrefix: "published/",
		ProcessedPrefix: "processed/",
		Thresholds:      domain.DefaultThresholds(),
	}
}

func newFixture() *fixture {
	return newFixtureWithConfig(defaultTestConfig())
}

func newFixtureWithConfig(cfg application.Config) *fixture {
	f := &fixture{
		submissions: &fakeSubmissions{byID: map[string]domain.ContentSubmission{}},
		strikes:     &fakeStrikes{},
		approvals:   &fakeApprovals{byCorrelation: map[string]domain.ApprovalTask{}},
		runs:        &fakeRuns{byID: map[string]domain.WorkflowRun{}, claims: map[string]time.Time{}},
		audit:       &fakeAudit{},
		outbox:      &fakeOutbox{},
		segmenter:   &fakeSegmenter{},
		scorer:      &fakeScorer{},
		objects:     &fakeObjects{copies: map[string]string{}},
		riskFlags:   &fakeRiskFlags{flagged: map[string]bool{}},
		notifier:    &fakeNotifier{},
	}
	f.service = application.NewService(application.Dependencies{
		Config:      cfg,
		Submissions: f.submissions,
		Strikes:     f.strikes,
		Approvals:   f.approvals,
		Runs:        f.runs,
		Audit:       f.audit,
		Outbox:      f.outbox,
		Segmenter:   f.segmenter,
		ImageScorer: f.scorer,
		PIIScanner:  &fakePII{},
		Objects:     f.objects,
		RiskFlags:   f.riskFlags,
		Notifier:    f.notifier,
	})
	return f
}

// drive claims and executes runnable steps until nothing is claimable,
// emulating the worker loop.
func (f *fixture) drive(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		runs, err := f.service.ClaimRunnableRuns(ctx, 10)
		if err != nil {
			t.Fatalf("claim runnable: %v", err)
		}
		if len(runs) == 0 {
			return
		}
		for _, run := range runs {
			if err := f.service.ExecuteStep(ctx, run); err != nil {
				t.Fatalf("execute step for %s in %s: %v", run.RunID, run.State, err)
			}
		}
	}
	t.Fatalf("workflow did not settle")
}

func submitCloset(t *testing.T, f *fixture) application.SubmitContentResponse {
	t.Helper()
	res, err := f.service.SubmitContent(context.Background(), application.SubmitContentRequest{
		OwnerID:  "user-1",
		Kind:     "CLOSET_ITEM",
		MediaKey: "uploads/outfit.jpg",
		Text:     "spring look",
		Tags:     []string{"fashion"},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return res
}

func TestClosetUploadApproveFlow(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	res := submitCloset(t, f)

	f.drive(t)

	status, err := f.service.GetSubmission(ctx, res.ItemID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if status.Status != "pending_review" {
		t.Fatalf("suspended item should present as pending, got %q", status.Status)
	}

	pending, err := f.service.ListPendingReviews(ctx, 0)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].CorrelationID != res.ItemID {
		t.Fatalf("expected one pending review for %s, got %+v", res.ItemID, pending)
	}
	if len(f.notifier.notified) != 1 {
		t.Fatalf("closet review should notify the admin channel once, got %d", len(f.notifier.notified))
	}

	approval, err := f.service.CompleteApproval(ctx, application.ApprovalRequest{
		CorrelationID: res.ItemID,
		Decision:      "approve",
		ReviewedBy:    "admin-1",
	})
	if err != nil {
		t.Fatalf("complete approval: %v", err)
	}
	if approval.Decision != domain.ApprovalDecisionApprove {
		t.Fatalf("lowercase approve should normalize, got %q", approval.Decision)
	}

	f.drive(t)

	status, err = f.service.GetSubmission(ctx, res.ItemID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if status.Status != "approved" {
		t.Fatalf("approved item should publish, got %q", status.Status)
	}
	if got := f.objects.copies["processed/outfit.jpg"]; got != "published/outfit.jpg" {
		t.Fatalf("segmented output should be copied to the published namespace, got %q", got)
	}
	if !f.outbox.has("closet.item.published") {
		t.Fatalf("publish should enqueue an item event, got %v", f.outbox.types())
	}
}

func TestCompleteApprovalDefaultDeny(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	res := submitCloset(t, f)
	f.drive(t)

	approval, err := f.service.CompleteApproval(ctx, application.ApprovalRequest{
		CorrelationID: res.ItemID,
		Decision:      "definitely",
		ReviewedBy:    "admin-1",
	})
	if err != nil {
		t.Fatalf("complete approval: %v", err)
	}
	if approval.Decision != domain.ApprovalDecisionReject {
		t.Fatalf("unrecognized decision should default to reject, got %q", approval.Decision)
	}

	status, err := f.service.GetSubmission(ctx, res.ItemID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if status.Status != "rejected" {
		t.Fatalf("denied item should reject, got %q", status.Status)
	}
	if status.Reason == "" {
		t.Fatalf("rejection without a reason should carry the default one")
	}
	if !f.outbox.has("closet.item.rejected") {
		t.Fatalf("rejection should enqueue an item event, got %v", f.outbox.types())
	}
}

func TestCompleteApprovalConsumedAtMostOnce(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	res := submitCloset(t, f)
	f.drive(t)

	if _, err := f.service.CompleteApproval(ctx, application.ApprovalRequest{
		CorrelationID: res.ItemID,
		Decision:      "APPROVE",
		ReviewedBy:    "admin-1",
	}); err != nil {
		t.Fatalf("first completion: %v", err)
	}

	_, err := f.service.CompleteApproval(ctx, application.ApprovalRequest{
		CorrelationID: res.ItemID,
		Decision:      "REJECT",
		ReviewedBy:    "admin-2",
	})
	if !errors.Is(err, domain.ErrApprovalNotPending) {
		t.Fatalf("second completion should fail with ErrApprovalNotPending, got %v", err)
	}
}

func TestCompleteApprovalBeforeSuspendCommitKeepsToken(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	res := submitCloset(t, f)
	f.drive(t)

	// Roll the run back to what a lost suspend CAS leaves visible: the
	// approval row exists but the run still reads RUNNING.
	run, err := f.runs.GetByItemID(ctx, res.ItemID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	run.Status = domain.RunRunning
	f.runs.byID[run.RunID] = run

	_, err = f.service.CompleteApproval(ctx, application.ApprovalRequest{
		CorrelationID: res.ItemID,
		Decision:      "APPROVE",
		ReviewedBy:    "admin-1",
	})
	if !errors.Is(err, domain.ErrRunNotSuspended) {
		t.Fatalf("completion against a running run should fail, got %v", err)
	}

	pending, err := f.service.ListPendingReviews(ctx, 0)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("a failed completion must leave the token pending, got %d", len(pending))
	}

	// The executor re-suspends and reuses the existing row instead of
	// stranding a second token.
	f.drive(t)
	pending, err = f.service.ListPendingReviews(ctx, 0)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("re-suspending must not create a second review, got %d", len(pending))
	}

	if _, err := f.service.CompleteApproval(ctx, application.ApprovalRequest{
		CorrelationID: res.ItemID,
		Decision:      "APPROVE",
		ReviewedBy:    "admin-1",
	}); err != nil {
		t.Fatalf("retried completion: %v", err)
	}
	f.drive(t)

	status, err := f.service.GetSubmission(ctx, res.ItemID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if status.Status != "approved" {
		t.Fatalf("retried approval should publish, got %q", status.Status)
	}
}

func TestSuspendSurvivesNotifierOutage(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	f.notifier.err = errors.New("pubsub unavailable")
	res := submitCloset(t, f)
	f.drive(t)

	run, err := f.runs.GetByItemID(ctx, res.ItemID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run.Status != domain.RunSuspended {
		t.Fatalf("a failed notification must not block suspension, got %s", run.Status)
	}

	// The pending queue still delivers the review to a polling moderator.
	pending, err := f.service.ListPendingReviews(ctx, 0)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending review, got %d", len(pending))
	}

	f.notifier.err = nil
	if _, err := f.service.CompleteApproval(ctx, application.ApprovalRequest{
		CorrelationID: res.ItemID,
		Decision:      "APPROVE",
		ReviewedBy:    "admin-1",
	}); err != nil {
		t.Fatalf("complete approval: %v", err)
	}
	f.drive(t)

	status, err := f.service.GetSubmission(ctx, res.ItemID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if status.Status != "approved" {
		t.Fatalf("review should still conclude normally, got %q", status.Status)
	}
}

func TestExpireSweepSkipsRunWithVerdictApplied(t *testing.T) {
	t.Parallel()

	cfg := defaultTestConfig()
	cfg.ReviewExpiry = -time.Minute
	f := newFixtureWithConfig(cfg)
	ctx := context.Background()
	res := submitCloset(t, f)
	f.drive(t)

	// A completer applied its verdict but crashed before closing the row.
	run, err := f.runs.GetByItemID(ctx, res.ItemID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	run.Status = domain.RunRunning
	f.runs.byID[run.RunID] = run

	expired, err := f.service.ExpireStaleApprovals(ctx, 10)
	if err != nil {
		t.Fatalf("sweep should tolerate an already-resumed run: %v", err)
	}
	if expired != 0 {
		t.Fatalf("nothing got auto-rejected, so nothing should count, got %d", expired)
	}

	if n, err := f.service.ExpireStaleApprovals(ctx, 10); err != nil || n != 0 {
		t.Fatalf("the stale row should be closed after one sweep, got n=%d err=%v", n, err)
	}
}

func TestCompleteApprovalRequiresReviewer(t *testing.T) {
	t.Parallel()

	f := newFixture()
	_, err := f.service.CompleteApproval(context.Background(), application.ApprovalRequest{
		CorrelationID: "item-1",
		Decision:      "APPROVE",
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("missing reviewer should be invalid input, got %v", err)
	}
}

func TestExpireStaleApprovalsAutoRejects(t *testing.T) {
	t.Parallel()

	cfg := defaultTestConfig()
	cfg.ReviewExpiry = -time.Minute
	f := newFixtureWithConfig(cfg)
	ctx := context.Background()
	res := submitCloset(t, f)
	f.drive(t)

	expired, err := f.service.ExpireStaleApprovals(ctx, 10)
	if err != nil {
		t.Fatalf("expire stale approvals: %v", err)
	}
	if expired != 1 {
		t.Fatalf("expected one expiry, got %d", expired)
	}

	status, err := f.service.GetSubmission(ctx, res.ItemID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if status.Status != "rejected" {
		t.Fatalf("expired review should auto-reject, got %q", status.Status)
	}
	if !strings.Contains(status.Reason, "expired") {
		t.Fatalf("rejection reason should mention expiry, got %q", status.Reason)
	}
	if !f.outbox.has("moderation.review.expired") {
		t.Fatalf("expiry should enqueue an event, got %v", f.outbox.types())
	}

	if n, err := f.service.ExpireStaleApprovals(ctx, 10); err != nil || n != 0 {
		t.Fatalf("second sweep should find nothing, got n=%d err=%v", n, err)
	}
}

func TestBackgroundChangeDeniedPath(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	res, err := f.service.SubmitContent(ctx, application.SubmitContentRequest{
		OwnerID:  "user-1",
		Kind:     "BACKGROUND_CHANGE",
		MediaKey: "uploads/bg.jpg",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	f.drive(t)

	if len(f.notifier.broadcasted) != 1 {
		t.Fatalf("background-change reviews should broadcast, got %d", len(f.notifier.broadcasted))
	}
	if len(f.notifier.notified) != 0 {
		t.Fatalf("background-change reviews should not use the single-admin channel")
	}

	if _, err := f.service.CompleteApproval(ctx, application.ApprovalRequest{
		CorrelationID: res.ItemID,
		Decision:      "REJECT",
		Reason:        "background violates brand rules",
		ReviewedBy:    "admin-1",
	}); err != nil {
		t.Fatalf("complete approval: %v", err)
	}

	status, err := f.service.GetSubmission(ctx, res.ItemID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if status.Status != "rejected" {
		t.Fatalf("denied background change should reject, got %q", status.Status)
	}
	if status.Reason != "background violates brand rules" {
		t.Fatalf("moderator reason should be preserved, got %q", status.Reason)
	}
}

func TestStoryPublishImmediate(t *testing.T) {
	t.Parallel()

	f := newFixture()
	res, err := f.service.StartStoryPublish(context.Background(), application.StoryPublishRequest{
		OwnerID:  "user-1",
		MediaKey: "uploads/story.jpg",
		Caption:  "behind the scenes",
	})
	if err != nil {
		t.Fatalf("start story publish: %v", err)
	}
	if res.Scheduled {
		t.Fatalf("story without a schedule should publish immediately")
	}

	f.drive(t)

	if got := f.objects.copies["uploads/story.jpg"]; got != "published/story.jpg" {
		t.Fatalf("story media should be copied to the published namespace, got %q", got)
	}
	if !f.outbox.has("story.published") {
		t.Fatalf("immediate publish should enqueue a story event, got %v", f.outbox.types())
	}
}

func TestStoryPublishScheduled(t *testing.T) {
	t.Parallel()

	f := newFixture()
	at := time.Now().Add(48 * time.Hour)
	res, err := f.service.StartStoryPublish(context.Background(), application.StoryPublishRequest{
		OwnerID:     "user-1",
		MediaKey:    "uploads/story.jpg",
		ScheduledAt: &at,
	})
	if err != nil {
		t.Fatalf("start story publish: %v", err)
	}
	if !res.Scheduled {
		t.Fatalf("scheduled story should report scheduled")
	}

	f.drive(t)

	if len(f.objects.copies) != 0 {
		t.Fatalf("scheduled story must not publish media yet, got %v", f.objects.copies)
	}
	if !f.outbox.has("story.scheduled") {
		t.Fatalf("scheduling should enqueue an intent event, got %v", f.outbox.types())
	}

	run, err := f.runs.GetByItemID(context.Background(), res.StoryID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run.Status != domain.RunSucceeded {
		t.Fatalf("scheduled run should complete, got %s", run.Status)
	}
}

func TestAnalyzeAndDecideRecordsStrikeOnAutoReject(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.scorer.score = domain.ImageScore{ExplicitConfidence: 0.97}

	decision, err := f.service.AnalyzeAndDecide(context.Background(), application.AnalyzeRequest{
		ItemID:   "item-1",
		OwnerID:  "user-1",
		MediaKey: "uploads/outfit.jpg",
	})
	if err != nil {
		t.Fatalf("analyze and decide: %v", err)
	}
	if decision.Status != domain.DecisionRejected {
		t.Fatalf("explicit content should auto-reject, got %v", decision.Status)
	}
	if len(f.strikes.items) != 1 {
		t.Fatalf("auto-reject should record exactly one strike, got %d", len(f.strikes.items))
	}
	if !f.outbox.has("moderation.decision.recorded") {
		t.Fatalf("decision should enqueue an event, got %v", f.outbox.types())
	}
}

func TestAnalyzeAndDecideRepeatOffender(t *testing.T) {
	t.Parallel()

	f := newFixture()
	now := time.Now()
	for i := 0; i < 3; i++ {
		f.strikes.items = append(f.strikes.items, domain.Strike{
			UserID:     "user-1",
			RecordedAt: now.Add(-time.Duration(i+1) * time.Hour),
		})
	}

	decision, err := f.service.AnalyzeAndDecide(context.Background(), application.AnalyzeRequest{
		ItemID:  "item-1",
		OwnerID: "user-1",
		Text:    "a perfectly ordinary caption",
	})
	if err != nil {
		t.Fatalf("analyze and decide: %v", err)
	}
	if decision.Status != domain.DecisionHumanReview {
		t.Fatalf("repeat offender should lose auto-approve, got %v", decision.Status)
	}
	if len(f.strikes.items) != 3 {
		t.Fatalf("review routing must not add strikes, got %d", len(f.strikes.items))
	}
}

func TestAnalyzeAndDecideShadowModeration(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.scorer.score = domain.ImageScore{SuggestiveConfidence: 0.7}
	f.riskFlags.flagged["user-1"] = true

	decision, err := f.service.AnalyzeAndDecide(context.Background(), application.AnalyzeRequest{
		ItemID:   "item-1",
		OwnerID:  "user-1",
		MediaKey: "uploads/outfit.jpg",
	})
	if err != nil {
		t.Fatalf("analyze and decide: %v", err)
	}
	if !decision.ShadowModeration || decision.Status != domain.DecisionRejected {
		t.Fatalf("minors plus sexual content should shadow-reject, got %+v", decision)
	}
	if len(f.strikes.items) != 0 {
		t.Fatalf("shadow rejection must not record a strike")
	}
}

func TestTaskFailureRetriesThenFailsRun(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.segmenter.err = errors.New("segmentation service down")
	ctx := context.Background()
	res := submitCloset(t, f)

	f.drive(t)

	if f.segmenter.calls != 3 {
		t.Fatalf("task should be attempted MaxTaskAttempts times, got %d", f.segmenter.calls)
	}

	run, err := f.runs.GetByItemID(ctx, res.ItemID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run.Status != domain.RunFailed {
		t.Fatalf("exhausted retries should fail the run, got %s", run.Status)
	}
	if run.LastError == "" {
		t.Fatalf("failed run should retain the last error")
	}
	if !f.outbox.has("moderation.run.failed") {
		t.Fatalf("run failure should enqueue an event, got %v", f.outbox.types())
	}

	// Breakage stays internal: the owner still sees a pending item.
	status, err := f.service.GetSubmission(ctx, res.ItemID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if status.Status != "pending_review" {
		t.Fatalf("internal failure should present as pending, got %q", status.Status)
	}
}

func TestListSubmissionsByStatus(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	res := submitCloset(t, f)
	f.drive(t)

	items, err := f.service.ListSubmissionsByStatus(ctx, "pending_human_review", 0)
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(items) != 1 || items[0].ItemID != res.ItemID {
		t.Fatalf("suspended item should list under pending review, got %+v", items)
	}
	if items[0].Status != string(domain.StatusPendingReview) {
		t.Fatalf("the moderator listing exposes raw statuses, got %q", items[0].Status)
	}

	rejected, err := f.service.ListSubmissionsByStatus(ctx, "REJECTED", 0)
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if len(rejected) != 0 {
		t.Fatalf("nothing is rejected yet, got %+v", rejected)
	}

	if _, err := f.service.ListSubmissionsByStatus(ctx, "sideways", 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("unknown status should be invalid input, got %v", err)
	}
}

func TestAuditTrailRecordsReviewOutcome(t *testing.T) {
	t.Parallel()

	f := newFixture()
	ctx := context.Background()
	res := submitCloset(t, f)
	f.drive(t)

	if _, err := f.service.CompleteApproval(ctx, application.ApprovalRequest{
		CorrelationID: res.ItemID,
		Decision:      "APPROVE",
		ReviewedBy:    "admin-1",
	}); err != nil {
		t.Fatalf("complete approval: %v", err)
	}
	f.drive(t)

	entries, err := f.service.AuditTrail(ctx, res.ItemID, 0)
	if err != nil {
		t.Fatalf("audit trail: %v", err)
	}
	var actions []string
	for _, e := range entries {
		actions = append(actions, e.Action)
	}
	if !containsString(actions, "approval.completed") {
		t.Fatalf("trail should record the admin decision, got %v", actions)
	}
	if !containsString(actions, "workflow.completed") {
		t.Fatalf("trail should record the terminal outcome, got %v", actions)
	}
	for _, e := range entries {
		if e.Action == "approval.completed" && e.Actor != "admin-1" {
			t.Fatalf("decision should attribute the reviewer, got %q", e.Actor)
		}
	}

	if _, err := f.service.AuditTrail(ctx, " ", 0); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("blank correlation id should be invalid input, got %v", err)
	}
}

func containsString(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}

func TestSubmitContentValidation(t *testing.T) {
	t.Parallel()

	f := newFixture()
	_, err := f.service.SubmitContent(context.Background(), application.SubmitContentRequest{
		OwnerID:  "user-1",
		Kind:     "MIXTAPE",
		MediaKey: "uploads/x.jpg",
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("unknown kind should be invalid input, got %v", err)
	}
	if len(f.submissions.byID) != 0 {
		t.Fatalf("invalid submission must not be persisted")
	}
	if len(f.runs.byID) != 0 {
		t.Fatalf("invalid submission must not start a run")
	}
}
