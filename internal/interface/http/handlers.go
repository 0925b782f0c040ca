package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/douglasrmachado/Trilhas-App-sub001/internal/application/command"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/application/query"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/achievement"
	"github.com/douglasrmachado/Trilhas-App-sub001/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// writeDomainError maps the shared error taxonomy onto HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsInvalidArgument(err):
		writeJSONError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case shared.IsInsufficientBalance(err):
		writeJSONError(w, http.StatusUnprocessableEntity, "insufficient_balance", err.Error())
	case shared.IsInvalidState(err):
		writeJSONError(w, http.StatusConflict, "invalid_state", err.Error())
	case shared.IsStoreUnavailable(err):
		writeJSONError(w, http.StatusServiceUnavailable, "store_unavailable", "The storage backend is unavailable")
	default:
		s.logger.Error("unhandled error",
			"path", r.URL.Path,
			"request_id", getRequestID(r.Context()),
			"error", err,
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON")
		return false
	}
	return true
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Unknown endpoint")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "trilhas-progression",
		"status":  "running",
		"uptime":  s.Uptime().String(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(s.deps.HealthCheckers))
	healthy := true
	for name, checker := range s.deps.HealthCheckers {
		if err := checker.Ping(ctx); err != nil {
			checks[name] = "down"
			healthy = false
			continue
		}
		checks[name] = "up"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"healthy": healthy,
		"checks":  checks,
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// LEARNERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRegisterLearner(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	l, err := s.deps.RegisterLearner.Handle(r.Context(), command.RegisterLearnerCommand{
		Name:     body.Name,
		Email:    body.Email,
		Password: body.Password,
		Role:     body.Role,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    l.ID,
		"name":  l.Name,
		"email": l.Email,
		"role":  l.Role,
	})
}

// statsResponse is the wire shape of a learner stats aggregate. The domain
// struct has no json tags, so the mapping keeps the API keys snake_case.
type statsResponse struct {
	UserID           string `json:"user_id"`
	TotalXP          int    `json:"total_xp"`
	Level            int    `json:"level"`
	Achievements     int    `json:"achievements"`
	CompletedModules int    `json:"completed_modules"`
	CompletedTrails  int    `json:"completed_trails"`
}

func newStatsResponse(stats *achievement.Stats) statsResponse {
	return statsResponse{
		UserID:           stats.UserID,
		TotalXP:          stats.TotalXP,
		Level:            stats.Level,
		Achievements:     stats.Achievements,
		CompletedModules: stats.CompletedModules,
		CompletedTrails:  stats.CompletedTrails,
	}
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.NewUserID(r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	stats, err := s.deps.GetLearnerStats.Handle(r.Context(), userID.String())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatsResponse(stats))
}

func (s *Server) handleListAchievements(w http.ResponseWriter, r *http.Request) {
	uid, err := shared.NewUserID(r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	userID := uid.String()

	// ?catalog=true returns the full catalog annotated with unlock state
	// instead of just the earned list.
	if r.URL.Query().Get("catalog") == "true" {
		entries, err := s.deps.ListAchievements.ListCatalogWithProgress(r.Context(), userID)
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
		return
	}

	earned, err := s.deps.ListAchievements.ListForUser(r.Context(), userID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, earned)
}

func (s *Server) handleGetTrailCompletion(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.NewUserID(r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	trailID, err := shared.NewTrailID(r.PathValue("trailID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	completion, err := s.deps.GetTrailCompletion.Handle(r.Context(), query.GetTrailCompletionQuery{
		UserID:  userID.String(),
		TrailID: trailID.String(),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"trail_id":          completion.TrailID,
		"user_id":           completion.UserID,
		"completed_modules": completion.CompletedModules,
		"total_modules":     completion.TotalModules,
		"complete":          completion.IsComplete(),
	})
}

func (s *Server) handleSetModuleStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.NewUserID(r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	moduleID, err := shared.NewModuleID(r.PathValue("moduleID"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	result, err := s.deps.SetModuleStatus.Handle(r.Context(), command.SetModuleStatusCommand{
		UserID:   userID.String(),
		ModuleID: moduleID.String(),
		Status:   body.Status,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	resp := map[string]any{
		"status":           result.Record.Status,
		"xp_credited":      result.XPCredited,
		"trail_completed":  result.TrailCompleted,
		"new_achievements": result.NewAchievements,
	}
	if result.XPCredited > 0 {
		resp["total_xp"] = result.Balance.TotalXP
		resp["level"] = result.Balance.Level
	}
	writeJSON(w, http.StatusOK, resp)
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleListTrails(w http.ResponseWriter, r *http.Request) {
	trails, err := s.deps.ListCatalog.ListTrails(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trails)
}

func (s *Server) handleListModules(w http.ResponseWriter, r *http.Request) {
	trailID, err := shared.NewTrailID(r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	modules, err := s.deps.ListCatalog.ListModules(r.Context(), trailID.String())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, modules)
}

// ══════════════════════════════════════════════════════════════════════════════
// REWARDS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleCreateRewardRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		StudentID  string `json:"student_id"`
		RewardType string `json:"reward_type"`
		Message    string `json:"message"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	req, err := s.deps.CreateRewardRequest.Handle(r.Context(), command.CreateRewardRequestCommand{
		StudentID:  body.StudentID,
		RewardType: body.RewardType,
		Message:    body.Message,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":          req.ID,
		"reward_type": req.RewardType,
		"points_cost": req.PointsCost,
		"status":      req.Status,
	})
}

func (s *Server) handleListPendingRewards(w http.ResponseWriter, r *http.Request) {
	pending, err := s.deps.ListRewardRequests.ListPendingForProfessors(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func (s *Server) handleListStudentRewards(w http.ResponseWriter, r *http.Request) {
	studentID, err := shared.NewUserID(r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	requests, err := s.deps.ListRewardRequests.ListForStudent(r.Context(), studentID.String())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

func (s *Server) handleResolveRewardRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProfessorID string `json:"professor_id"`
		Approve     bool   `json:"approve"`
		Response    string `json:"response"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	req, err := s.deps.ResolveRewardReq.Handle(r.Context(), command.ResolveRewardRequestCommand{
		RequestID:   r.PathValue("id"),
		ProfessorID: body.ProfessorID,
		Approve:     body.Approve,
		Response:    body.Response,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":          req.ID,
		"status":      req.Status,
		"resolved_at": req.ResolvedAt,
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SUBMISSIONS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleSubmitArtifact(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID       string `json:"user_id"`
		ModuleID     string `json:"module_id"`
		ArtifactName string `json:"artifact_name"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	sub, err := s.deps.SubmitArtifact.Handle(r.Context(), command.SubmitArtifactCommand{
		UserID:       body.UserID,
		ModuleID:     body.ModuleID,
		ArtifactName: body.ArtifactName,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":     sub.ID,
		"status": sub.Status,
	})
}

func (s *Server) handleReviewSubmission(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ProfessorID string `json:"professor_id"`
		Approve     bool   `json:"approve"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	sub, err := s.deps.ReviewSubmission.Handle(r.Context(), command.ReviewSubmissionCommand{
		SubmissionID: r.PathValue("id"),
		ProfessorID:  body.ProfessorID,
		Approve:      body.Approve,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"id":          sub.ID,
		"status":      sub.Status,
		"reviewed_at": sub.ReviewedAt,
	})
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	userID, err := shared.NewUserID(r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	subs, err := s.deps.ListSubmissions.ListForUser(r.Context(), userID.String())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}
