package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"medicohub-assessment-service/internal/app"
	"medicohub-assessment-service/internal/domain"
	"medicohub-assessment-service/internal/infra/memory"
)

const adminEmail = "admin@medicohub.example"

func newTestServer(t *testing.T) (*httptest.Server, *app.CompetitionService) {
	t.Helper()

	store := memory.NewAssessmentStore().Seed(sampleQuiz())
	attempts := memory.NewAttemptRepository()
	leaderboard := memory.NewLeaderboardStore()
	groups := memory.NewGroupRepository()
	comps := memory.NewCompetitionRepository()
	log := zap.NewNop()

	assessments := app.NewAssessmentService(store, store, log)
	submissions := app.NewSubmissionService(store, attempts, leaderboard, log)
	groupService := app.NewGroupService(groups, log)
	competitions := app.NewCompetitionService(comps, groups, store, submissions, app.CompetitionConfig{}, log)

	handler := NewHandler(assessments, submissions, competitions, groupService, []string{adminEmail}, log)
	wsHandler := NewWSHandler(competitions, log)

	mux := http.NewServeMux()
	handler.Register(mux)
	mux.HandleFunc("GET /ws/standings", wsHandler.ServeWS)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, competitions
}

func doJSON(t *testing.T, method, url string, body any, admin bool) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("X-User-Email", adminEmail)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestCreateQuizRequiresAdmin(t *testing.T) {
	server, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/quizzes", map[string]any{"title": "T"}, false)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
	if body["error"] != "Access denied: Admins only" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestQuizAttemptFlow(t *testing.T) {
	server, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/quizzes", map[string]any{
		"topic": "cardiology",
		"questions": []map[string]any{
			{"prompt": "How many chambers?", "options": []string{"3", "4"}, "correctAnswer": "4"},
		},
	}, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create quiz: %d %v", resp.StatusCode, body)
	}
	quiz, _ := body["quiz"].(map[string]any)
	quizID, _ := quiz["id"].(string)
	if quizID == "" {
		t.Fatalf("missing quiz id: %v", body)
	}
	if quiz["title"] != "cardiology" || quiz["difficulty"] != "medium" {
		t.Fatalf("expected topic-as-title and default difficulty, got %v", quiz)
	}
	questions, _ := quiz["questions"].([]any)
	question, _ := questions[0].(map[string]any)
	questionID, _ := question["id"].(string)
	if questionID == "" {
		t.Fatalf("question should get a generated id: %v", question)
	}

	resp, body = doJSON(t, http.MethodPost, server.URL+"/api/quizzes/"+quizID+"/attempt", map[string]any{
		"userId":      "u1",
		"name":        "Alice",
		"durationSec": 30,
		"answers": []map[string]any{
			{"questionId": questionID, "selected": "4"},
		},
	}, false)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("attempt: %d %v", resp.StatusCode, body)
	}
	if body["score"] != float64(1) {
		t.Fatalf("expected score 1, got %v", body["score"])
	}

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/quizzes/"+quizID+"/leaderboard", nil)
	boardResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	defer boardResp.Body.Close()
	var rows []map[string]any
	if err := json.NewDecoder(boardResp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode board: %v", err)
	}
	if len(rows) != 1 || rows[0]["user"] != "Alice" || rows[0]["score"] != float64(1) {
		t.Fatalf("unexpected board: %v", rows)
	}
}

func TestAttemptRequiresUser(t *testing.T) {
	server, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/quizzes/quiz-1/attempt", map[string]any{
		"answers": []map[string]any{{"questionId": "q1", "selected": "4"}},
	}, false)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if body["error"] != "userId required" {
		t.Fatalf("unexpected error body: %v", body)
	}
}

func TestUnknownQuizReads404(t *testing.T) {
	server, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/quizzes/missing/attempt", map[string]any{
		"userId":  "u1",
		"answers": []map[string]any{},
	}, false)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/quizzes/missing/leaderboard", nil)
	boardResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	boardResp.Body.Close()
	if boardResp.StatusCode != http.StatusNotFound {
		t.Fatalf("board of unknown quiz should 404, got %d", boardResp.StatusCode)
	}
}

func TestExamTypeIsolation(t *testing.T) {
	server, _ := newTestServer(t)

	// quiz-1 exists but is not an exam.
	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/exams/quiz-1/submit", map[string]any{
		"userId":  "u1",
		"answers": []map[string]any{},
	}, false)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for type mismatch, got %d", resp.StatusCode)
	}
}

func TestCompetitionFlowOverREST(t *testing.T) {
	server, _ := newTestServer(t)

	_, body := doJSON(t, http.MethodPost, server.URL+"/api/groups", map[string]any{"name": "Red Team"}, true)
	group, _ := body["group"].(map[string]any)
	groupID, _ := group["id"].(string)
	if groupID == "" {
		t.Fatalf("missing group id: %v", body)
	}

	resp, body := doJSON(t, http.MethodPost, server.URL+"/api/groups/"+groupID+"/join", map[string]any{"userId": "u1"}, false)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join: %d %v", resp.StatusCode, body)
	}

	_, body = doJSON(t, http.MethodPost, server.URL+"/api/competitions", map[string]any{
		"title":    "Anatomy Cup",
		"type":     "quiz",
		"targetId": "quiz-1",
		"groups":   []string{groupID},
	}, true)
	comp, _ := body["competition"].(map[string]any)
	compID, _ := comp["id"].(string)
	if compID == "" {
		t.Fatalf("missing competition id: %v", body)
	}

	resp, body = doJSON(t, http.MethodPost, server.URL+"/api/competitions/"+compID+"/attempt", map[string]any{
		"userId": "u1",
		"answers": []map[string]any{
			{"questionId": "q1", "selected": "4"},
		},
	}, false)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("competition attempt: %d %v", resp.StatusCode, body)
	}
	standings, _ := body["standings"].(map[string]any)
	entries, _ := standings["entries"].([]any)
	if len(entries) != 1 {
		t.Fatalf("expected one standings entry, got %v", standings)
	}
	entry, _ := entries[0].(map[string]any)
	if entry["group"] != "Red Team" || entry["score"] != float64(1) {
		t.Fatalf("unexpected entry: %v", entry)
	}

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/competitions/"+compID+"/leaderboard", nil)
	boardResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	defer boardResp.Body.Close()
	var rows []map[string]any
	if err := json.NewDecoder(boardResp.Body).Decode(&rows); err != nil {
		t.Fatalf("decode board: %v", err)
	}
	if len(rows) != 1 || rows[0]["participants"] != float64(1) {
		t.Fatalf("unexpected board: %v", rows)
	}
}

func TestGlobalLeaderboard(t *testing.T) {
	server, _ := newTestServer(t)

	for _, u := range []string{"u1", "u2"} {
		resp, body := doJSON(t, http.MethodPost, server.URL+"/api/quizzes/quiz-1/attempt", map[string]any{
			"userId":  u,
			"answers": []map[string]any{{"questionId": "q1", "selected": "4"}},
		}, false)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("attempt: %d %v", resp.StatusCode, body)
		}
	}

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/api/leaderboard?limit=1", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	defer resp.Body.Close()
	var entries []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0]["xp"] != float64(1) {
		t.Fatalf("unexpected entries: %v", entries)
	}
}

func sampleQuiz() domain.Assessment {
	return domain.Assessment{
		ID:   "quiz-1",
		Type: domain.TypeQuiz,
		Questions: []domain.Question{
			{
				ID:            "q1",
				Prompt:        "How many chambers does the heart have?",
				Options:       []string{"3", "4"},
				CorrectAnswer: "4",
			},
		},
	}
}
