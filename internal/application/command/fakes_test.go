package command

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/achievement"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/learner"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/notification"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/progression"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/reward"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/submission"
)

// In-memory fakes implementing the domain repository interfaces. They mirror
// the store guarantees the real repositories document: guarded transitions,
// insert-if-absent grants, and in-transaction sufficiency checks.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ─────────────────────────────────────────────────────────────────────────────
// Balances
// ─────────────────────────────────────────────────────────────────────────────

type fakeBalanceRepo struct {
	mu       sync.Mutex
	balances map[string]progression.Balance
}

func newFakeBalanceRepo() *fakeBalanceRepo {
	return &fakeBalanceRepo{balances: make(map[string]progression.Balance)}
}

func (r *fakeBalanceRepo) Get(_ context.Context, userID string) (progression.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(userID), nil
}

func (r *fakeBalanceRepo) Credit(_ context.Context, userID string, amount int) (progression.Balance, error) {
	if amount <= 0 {
		return progression.Balance{}, shared.ErrNonPositiveXPAmount
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.apply(userID, amount), nil
}

func (r *fakeBalanceRepo) Debit(_ context.Context, userID string, amount int) (progression.Balance, error) {
	if amount <= 0 {
		return progression.Balance{}, shared.ErrNonPositiveXPAmount
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.get(userID).TotalXP < amount {
		return progression.Balance{}, shared.ErrBalanceTooLow
	}
	return r.apply(userID, -amount), nil
}

func (r *fakeBalanceRepo) get(userID string) progression.Balance {
	if b, ok := r.balances[userID]; ok {
		return b
	}
	return progression.ZeroBalance(userID)
}

func (r *fakeBalanceRepo) apply(userID string, delta int) progression.Balance {
	b := r.get(userID)
	b.TotalXP += delta
	b.Level = progression.LevelForXP(b.TotalXP)
	b.UpdatedAt = time.Now()
	r.balances[userID] = b
	return b
}

// ─────────────────────────────────────────────────────────────────────────────
// Learners
// ─────────────────────────────────────────────────────────────────────────────

type fakeLearnerRepo struct {
	mu       sync.Mutex
	learners map[string]*learner.Learner
}

func newFakeLearnerRepo(seed ...*learner.Learner) *fakeLearnerRepo {
	r := &fakeLearnerRepo{learners: make(map[string]*learner.Learner)}
	for _, l := range seed {
		r.learners[l.ID] = l
	}
	return r
}

func (r *fakeLearnerRepo) Create(_ context.Context, l *learner.Learner) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.learners {
		if existing.Email == l.Email {
			return shared.ErrLearnerAlreadyExists
		}
	}
	copied := *l
	r.learners[l.ID] = &copied
	return nil
}

func (r *fakeLearnerRepo) GetByID(_ context.Context, id string) (*learner.Learner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.learners[id]
	if !ok {
		return nil, shared.ErrLearnerNotFound
	}
	copied := *l
	return &copied, nil
}

func (r *fakeLearnerRepo) GetByEmail(_ context.Context, email string) (*learner.Learner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.learners {
		if l.Email == email {
			copied := *l
			return &copied, nil
		}
	}
	return nil, shared.ErrLearnerNotFound
}

func (r *fakeLearnerRepo) Exists(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.learners[id]
	return ok, nil
}

func student(id string) *learner.Learner {
	return &learner.Learner{ID: id, Name: "Aluno " + id, Email: id + "@test.dev", Role: learner.RoleStudent}
}

func professor(id string) *learner.Learner {
	return &learner.Learner{ID: id, Name: "Prof " + id, Email: id + "@test.dev", Role: learner.RoleProfessor}
}

// ─────────────────────────────────────────────────────────────────────────────
// Catalog
// ─────────────────────────────────────────────────────────────────────────────

type fakeCatalogRepo struct {
	trails  map[string]*progression.Trail
	modules map[string]*progression.Module
}

func newFakeCatalogRepo() *fakeCatalogRepo {
	return &fakeCatalogRepo{
		trails:  make(map[string]*progression.Trail),
		modules: make(map[string]*progression.Module),
	}
}

func (r *fakeCatalogRepo) addTrail(id, title string) *progression.Trail {
	t := &progression.Trail{ID: id, Title: title, Position: len(r.trails) + 1}
	r.trails[id] = t
	return t
}

func (r *fakeCatalogRepo) addModule(id, trailID, title string, xpReward int) *progression.Module {
	m := &progression.Module{ID: id, TrailID: trailID, Title: title, XPReward: xpReward, Position: len(r.modules) + 1}
	r.modules[id] = m
	return m
}

func (r *fakeCatalogRepo) GetTrail(_ context.Context, trailID string) (*progression.Trail, error) {
	t, ok := r.trails[trailID]
	if !ok {
		return nil, shared.ErrTrailNotFound
	}
	return t, nil
}

func (r *fakeCatalogRepo) GetModule(_ context.Context, moduleID string) (*progression.Module, error) {
	m, ok := r.modules[moduleID]
	if !ok {
		return nil, shared.ErrModuleNotFound
	}
	return m, nil
}

func (r *fakeCatalogRepo) ListTrails(_ context.Context) ([]*progression.Trail, error) {
	out := make([]*progression.Trail, 0, len(r.trails))
	for _, t := range r.trails {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeCatalogRepo) ListModulesByTrail(_ context.Context, trailID string) ([]*progression.Module, error) {
	var out []*progression.Module
	for _, m := range r.modules {
		if m.TrailID == trailID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Progress
// ─────────────────────────────────────────────────────────────────────────────

type fakeProgressRepo struct {
	mu       sync.Mutex
	catalog  *fakeCatalogRepo
	balances *fakeBalanceRepo
	records  map[string]*progression.ModuleProgress
}

func newFakeProgressRepo(catalog *fakeCatalogRepo, balances *fakeBalanceRepo) *fakeProgressRepo {
	return &fakeProgressRepo{
		catalog:  catalog,
		balances: balances,
		records:  make(map[string]*progression.ModuleProgress),
	}
}

func progressKey(userID, moduleID string) string { return userID + "|" + moduleID }

func (r *fakeProgressRepo) Get(_ context.Context, userID, moduleID string) (*progression.ModuleProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[progressKey(userID, moduleID)]
	if !ok {
		return nil, shared.ErrProgressNotFound
	}
	copied := *rec
	return &copied, nil
}

func (r *fakeProgressRepo) Start(_ context.Context, userID, moduleID string) (*progression.ModuleProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := progressKey(userID, moduleID)
	if rec, ok := r.records[key]; ok {
		if rec.IsCompleted() {
			return nil, shared.ErrStatusRegression
		}
		copied := *rec
		return &copied, nil
	}
	rec := &progression.ModuleProgress{
		UserID:    userID,
		ModuleID:  moduleID,
		Status:    progression.StatusInProgress,
		StartedAt: time.Now(),
	}
	r.records[key] = rec
	copied := *rec
	return &copied, nil
}

func (r *fakeProgressRepo) Complete(ctx context.Context, userID, moduleID string, xpReward int) (bool, *progression.ModuleProgress, progression.Balance, error) {
	r.mu.Lock()
	key := progressKey(userID, moduleID)
	if rec, ok := r.records[key]; ok && rec.IsCompleted() {
		copied := *rec
		r.mu.Unlock()
		balance, _ := r.balances.Get(ctx, userID)
		return false, &copied, balance, nil
	}
	now := time.Now()
	rec := &progression.ModuleProgress{
		UserID:      userID,
		ModuleID:    moduleID,
		Status:      progression.StatusCompleted,
		XPEarned:    xpReward,
		StartedAt:   now,
		CompletedAt: &now,
	}
	if prev, ok := r.records[key]; ok {
		rec.StartedAt = prev.StartedAt
	}
	r.records[key] = rec
	copied := *rec
	r.mu.Unlock()

	balance, err := r.balances.Credit(ctx, userID, xpReward)
	if err != nil {
		return false, nil, progression.Balance{}, err
	}
	return true, &copied, balance, nil
}

func (r *fakeProgressRepo) TrailCompletion(ctx context.Context, userID, trailID string) (progression.TrailCompletion, error) {
	if _, err := r.catalog.GetTrail(ctx, trailID); err != nil {
		return progression.TrailCompletion{}, err
	}
	modules, _ := r.catalog.ListModulesByTrail(ctx, trailID)

	r.mu.Lock()
	defer r.mu.Unlock()
	completed := 0
	for _, m := range modules {
		if rec, ok := r.records[progressKey(userID, m.ID)]; ok && rec.IsCompleted() {
			completed++
		}
	}
	return progression.TrailCompletion{
		TrailID:          trailID,
		UserID:           userID,
		CompletedModules: completed,
		TotalModules:     len(modules),
	}, nil
}

func (r *fakeProgressRepo) CountCompletedModules(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, rec := range r.records {
		if rec.UserID == userID && rec.IsCompleted() {
			count++
		}
	}
	return count, nil
}

func (r *fakeProgressRepo) CountCompletedTrails(ctx context.Context, userID string) (int, error) {
	trails, _ := r.catalog.ListTrails(ctx)
	count := 0
	for _, t := range trails {
		completion, err := r.TrailCompletion(ctx, userID, t.ID)
		if err != nil {
			return 0, err
		}
		if completion.IsComplete() {
			count++
		}
	}
	return count, nil
}

func (r *fakeProgressRepo) ListForUser(_ context.Context, userID string) ([]*progression.ModuleProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*progression.ModuleProgress
	for _, rec := range r.records {
		if rec.UserID == userID {
			copied := *rec
			out = append(out, &copied)
		}
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Achievements
// ─────────────────────────────────────────────────────────────────────────────

type fakeAchievementRepo struct {
	mu       sync.Mutex
	balances *fakeBalanceRepo
	byTitle  map[string]*achievement.Achievement
	grants   map[string]time.Time // userID|achievementID
}

func newFakeAchievementRepo(balances *fakeBalanceRepo) *fakeAchievementRepo {
	return &fakeAchievementRepo{
		balances: balances,
		byTitle:  make(map[string]*achievement.Achievement),
		grants:   make(map[string]time.Time),
	}
}

func (r *fakeAchievementRepo) add(title string, typ achievement.Type, xpReward, requirement int) *achievement.Achievement {
	a := &achievement.Achievement{
		ID:          "ach-" + title,
		Title:       title,
		Type:        typ,
		XPReward:    xpReward,
		Requirement: requirement,
	}
	r.byTitle[title] = a
	return a
}

func (r *fakeAchievementRepo) GetByTitle(_ context.Context, title string) (*achievement.Achievement, error) {
	a, ok := r.byTitle[title]
	if !ok {
		return nil, shared.ErrAchievementNotFound
	}
	return a, nil
}

func (r *fakeAchievementRepo) ListCatalog(_ context.Context) ([]*achievement.Achievement, error) {
	out := make([]*achievement.Achievement, 0, len(r.byTitle))
	for _, a := range r.byTitle {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAchievementRepo) ListForUser(_ context.Context, userID string) ([]*achievement.Earned, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*achievement.Earned
	for _, a := range r.byTitle {
		if earnedAt, ok := r.grants[userID+"|"+a.ID]; ok {
			out = append(out, &achievement.Earned{Achievement: *a, EarnedAt: earnedAt})
		}
	}
	return out, nil
}

func (r *fakeAchievementRepo) Grant(ctx context.Context, userID string, a *achievement.Achievement) (bool, progression.Balance, error) {
	r.mu.Lock()
	key := userID + "|" + a.ID
	if _, ok := r.grants[key]; ok {
		r.mu.Unlock()
		balance, _ := r.balances.Get(ctx, userID)
		return false, balance, nil
	}
	r.grants[key] = time.Now()
	r.mu.Unlock()

	if a.XPReward > 0 {
		balance, err := r.balances.Credit(ctx, userID, a.XPReward)
		return true, balance, err
	}
	balance, _ := r.balances.Get(ctx, userID)
	return true, balance, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Reward requests
// ─────────────────────────────────────────────────────────────────────────────

type fakeRewardRepo struct {
	mu       sync.Mutex
	balances *fakeBalanceRepo
	requests map[string]*reward.Request
}

func newFakeRewardRepo(balances *fakeBalanceRepo) *fakeRewardRepo {
	return &fakeRewardRepo{
		balances: balances,
		requests: make(map[string]*reward.Request),
	}
}

func (r *fakeRewardRepo) Create(_ context.Context, req *reward.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *req
	r.requests[req.ID] = &copied
	return nil
}

func (r *fakeRewardRepo) Get(_ context.Context, requestID string) (*reward.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[requestID]
	if !ok {
		return nil, shared.ErrRequestNotFound
	}
	copied := *req
	return &copied, nil
}

func (r *fakeRewardRepo) Approve(ctx context.Context, requestID, professorID, response string, cost int) (*reward.Request, progression.Balance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[requestID]
	if !ok {
		return nil, progression.Balance{}, shared.ErrRequestNotFound
	}
	if req.IsResolved() {
		return nil, progression.Balance{}, shared.ErrRequestAlreadyClosed
	}

	// Mirrors the real store: the debit and the status change commit or
	// fail together, so an insufficient balance leaves the request pending.
	balance, err := r.balances.Debit(ctx, req.StudentID, cost)
	if err != nil {
		return nil, progression.Balance{}, err
	}

	now := time.Now()
	req.Status = reward.StatusApproved
	req.ProfessorID = &professorID
	req.ProfessorResponse = &response
	req.ResolvedAt = &now
	copied := *req
	return &copied, balance, nil
}

func (r *fakeRewardRepo) Reject(_ context.Context, requestID, professorID, response string) (*reward.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[requestID]
	if !ok {
		return nil, shared.ErrRequestNotFound
	}
	if req.IsResolved() {
		return nil, shared.ErrRequestAlreadyClosed
	}
	now := time.Now()
	req.Status = reward.StatusRejected
	req.ProfessorID = &professorID
	req.ProfessorResponse = &response
	req.ResolvedAt = &now
	copied := *req
	return &copied, nil
}

func (r *fakeRewardRepo) ListPending(_ context.Context) ([]*reward.PendingRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*reward.PendingRequest
	for _, req := range r.requests {
		if req.Status == reward.StatusPending {
			out = append(out, &reward.PendingRequest{Request: *req})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeRewardRepo) ListForStudent(_ context.Context, studentID string) ([]*reward.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*reward.Request
	for _, req := range r.requests {
		if req.StudentID == studentID {
			copied := *req
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Submissions
// ─────────────────────────────────────────────────────────────────────────────

func pendingSubmission(id, userID string) *submission.Submission {
	return &submission.Submission{
		ID:           id,
		UserID:       userID,
		ModuleID:     "mod-1",
		ArtifactName: "projeto.zip",
		Status:       submission.StatusPending,
		CreatedAt:    time.Now(),
	}
}

type fakeSubmissionRepo struct {
	mu          sync.Mutex
	submissions map[string]*submission.Submission
}

func newFakeSubmissionRepo() *fakeSubmissionRepo {
	return &fakeSubmissionRepo{submissions: make(map[string]*submission.Submission)}
}

func (r *fakeSubmissionRepo) Create(_ context.Context, s *submission.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *s
	r.submissions[s.ID] = &copied
	return nil
}

func (r *fakeSubmissionRepo) Get(_ context.Context, id string) (*submission.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[id]
	if !ok {
		return nil, shared.ErrSubmissionNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSubmissionRepo) Review(_ context.Context, id, professorID string, approve bool) (*submission.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[id]
	if !ok {
		return nil, shared.ErrSubmissionNotFound
	}
	if s.IsReviewed() {
		return nil, shared.ErrSubmissionClosed
	}
	now := time.Now()
	if approve {
		s.Status = submission.StatusApproved
	} else {
		s.Status = submission.StatusRejected
	}
	s.ReviewedBy = &professorID
	s.ReviewedAt = &now
	copied := *s
	return &copied, nil
}

func (r *fakeSubmissionRepo) CountApprovedForUser(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, s := range r.submissions {
		if s.UserID == userID && s.Status == submission.StatusApproved {
			count++
		}
	}
	return count, nil
}

func (r *fakeSubmissionRepo) ListForUser(_ context.Context, userID string) ([]*submission.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*submission.Submission
	for _, s := range r.submissions {
		if s.UserID == userID {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Event publisher and notification sink spies
// ─────────────────────────────────────────────────────────────────────────────

type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *capturingPublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturingPublisher) types() []shared.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type sinkNote struct {
	UserID string
	Kind   notification.EventKind
	Title  string
	Body   string
}

type capturingSink struct {
	mu    sync.Mutex
	notes []sinkNote
}

func (s *capturingSink) Notify(_ context.Context, userID string, kind notification.EventKind, title, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, sinkNote{UserID: userID, Kind: kind, Title: title, Body: body})
}

func (s *capturingSink) kinds() []notification.EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]notification.EventKind, len(s.notes))
	for i, n := range s.notes {
		out[i] = n.Kind
	}
	return out
}
