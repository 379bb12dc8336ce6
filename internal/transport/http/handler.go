package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"medicohub-assessment-service/internal/app"
	"medicohub-assessment-service/internal/domain"
)

// Handler exposes the assessment REST API. Authoring endpoints are
// gated on the configured admin email list via the X-User-Email header.
type Handler struct {
	assessments  *app.AssessmentService
	submissions  *app.SubmissionService
	competitions *app.CompetitionService
	groups       *app.GroupService
	admins       map[string]struct{}
	log          *zap.Logger
}

func NewHandler(
	assessments *app.AssessmentService,
	submissions *app.SubmissionService,
	competitions *app.CompetitionService,
	groups *app.GroupService,
	adminEmails []string,
	log *zap.Logger,
) *Handler {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		admins[email] = struct{}{}
	}
	return &Handler{
		assessments:  assessments,
		submissions:  submissions,
		competitions: competitions,
		groups:       groups,
		admins:       admins,
		log:          log,
	}
}

// Register mounts the API routes.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("POST /api/quizzes", h.requireAdmin(h.createQuiz))
	mux.HandleFunc("GET /api/quizzes", h.listQuizzes)
	mux.HandleFunc("GET /api/quizzes/{id}", h.getQuiz)
	mux.HandleFunc("POST /api/quizzes/{id}/attempt", h.attemptQuiz)
	mux.HandleFunc("GET /api/quizzes/{id}/leaderboard", h.quizBoard)

	mux.Handle("POST /api/exams", h.requireAdmin(h.createExam))
	mux.HandleFunc("GET /api/exams", h.listExams)
	mux.HandleFunc("GET /api/exams/{id}", h.getExam)
	mux.HandleFunc("POST /api/exams/{id}/submit", h.submitExam)
	mux.HandleFunc("GET /api/exams/{id}/leaderboard", h.examBoard)

	mux.Handle("POST /api/groups", h.requireAdmin(h.createGroup))
	mux.HandleFunc("POST /api/groups/{id}/join", h.joinGroup)

	mux.Handle("POST /api/competitions", h.requireAdmin(h.createCompetition))
	mux.HandleFunc("GET /api/competitions/{id}", h.getCompetition)
	mux.HandleFunc("POST /api/competitions/{id}/attempt", h.competitionAttempt)
	mux.HandleFunc("GET /api/competitions/{id}/leaderboard", h.competitionBoard)

	mux.HandleFunc("GET /api/leaderboard", h.globalBoard)
}

func (h *Handler) createQuiz(w http.ResponseWriter, r *http.Request) {
	var req app.CreateQuizRequest
	if !h.decode(w, r, &req) {
		return
	}
	quiz, err := h.assessments.CreateQuiz(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "quiz": quiz})
}

func (h *Handler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.assessments.List(r.Context(), domain.TypeQuiz)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, quizzes)
}

func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.assessments.Get(r.Context(), domain.TypeQuiz, r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) attemptQuiz(w http.ResponseWriter, r *http.Request) {
	var req app.SubmitRequest
	if !h.decode(w, r, &req) {
		return
	}
	attempt, err := h.submissions.Submit(r.Context(), domain.TypeQuiz, r.PathValue("id"), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "attempt": attempt, "score": attempt.Score})
}

func (h *Handler) quizBoard(w http.ResponseWriter, r *http.Request) {
	h.board(w, r, domain.TypeQuiz)
}

func (h *Handler) createExam(w http.ResponseWriter, r *http.Request) {
	var req app.CreateExamRequest
	if !h.decode(w, r, &req) {
		return
	}
	exam, err := h.assessments.CreateExam(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "exam": exam})
}

func (h *Handler) listExams(w http.ResponseWriter, r *http.Request) {
	exams, err := h.assessments.List(r.Context(), domain.TypeExam)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, exams)
}

func (h *Handler) getExam(w http.ResponseWriter, r *http.Request) {
	exam, err := h.assessments.Get(r.Context(), domain.TypeExam, r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, exam)
}

func (h *Handler) submitExam(w http.ResponseWriter, r *http.Request) {
	var req app.SubmitRequest
	if !h.decode(w, r, &req) {
		return
	}
	attempt, err := h.submissions.Submit(r.Context(), domain.TypeExam, r.PathValue("id"), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "attempt": attempt, "score": attempt.Score})
}

func (h *Handler) examBoard(w http.ResponseWriter, r *http.Request) {
	h.board(w, r, domain.TypeExam)
}

func (h *Handler) board(w http.ResponseWriter, r *http.Request, typ domain.AssessmentType) {
	// The board read doubles as an existence check so an unknown
	// assessment reads as 404 rather than an empty board.
	if _, err := h.assessments.Get(r.Context(), typ, r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	rows, err := h.submissions.Board(r.Context(), typ, r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	group, err := h.groups.Create(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "group": group})
}

func (h *Handler) joinGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	group, err := h.groups.Join(r.Context(), r.PathValue("id"), req.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "group": group})
}

func (h *Handler) createCompetition(w http.ResponseWriter, r *http.Request) {
	var req app.CreateCompetitionRequest
	if !h.decode(w, r, &req) {
		return
	}
	comp, err := h.competitions.Create(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "competition": comp})
}

func (h *Handler) getCompetition(w http.ResponseWriter, r *http.Request) {
	comp, err := h.competitions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, comp)
}

func (h *Handler) competitionAttempt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		app.SubmitRequest
		GroupID string `json:"groupId"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	attempt, standings, err := h.competitions.SubmitAttempt(r.Context(), r.PathValue("id"), req.GroupID, req.SubmitRequest)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"success": true, "attempt": attempt, "standings": standings})
}

func (h *Handler) competitionBoard(w http.ResponseWriter, r *http.Request) {
	standings, err := h.competitions.Standings(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, standings.Entries)
}

func (h *Handler) globalBoard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	entries, err := h.submissions.TopUsers(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) requireAdmin(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := r.Header.Get("X-User-Email")
		if _, ok := h.admins[email]; email == "" || !ok {
			h.writeJSON(w, http.StatusForbidden, map[string]string{"error": "Access denied: Admins only"})
			return
		}
		next(w, r)
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("write response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.Error(err))
		msg = "internal error"
	}
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUserRequired),
		errors.Is(err, domain.ErrTitleRequired),
		errors.Is(err, domain.ErrNameRequired),
		errors.Is(err, domain.ErrCompetitionInvalid),
		errors.Is(err, domain.ErrGroupUnresolved):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAssessmentNotFound),
		errors.Is(err, domain.ErrGroupNotFound),
		errors.Is(err, domain.ErrCompetitionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCompetitionNotActive):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
