package app_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"medicohub-assessment-service/internal/app"
	"medicohub-assessment-service/internal/domain"
	"medicohub-assessment-service/internal/infra/memory"
)

type submissionFixture struct {
	service     *app.SubmissionService
	attempts    *memory.AttemptRepository
	leaderboard *memory.LeaderboardStore
}

func newSubmissionFixture(assessments ...domain.Assessment) submissionFixture {
	store := memory.NewAssessmentStore().Seed(assessments...)
	attempts := memory.NewAttemptRepository()
	leaderboard := memory.NewLeaderboardStore()
	service := app.NewSubmissionService(store, attempts, leaderboard, zap.NewNop())
	return submissionFixture{service: service, attempts: attempts, leaderboard: leaderboard}
}

func TestSubmitRecordsAttemptAndCreditsXP(t *testing.T) {
	ctx := context.Background()
	fx := newSubmissionFixture(anatomyQuiz())

	attempt, err := fx.service.Submit(ctx, domain.TypeQuiz, "quiz-1", app.SubmitRequest{
		UserID:   "u1",
		UserName: "Alice",
		Answers: []domain.AnswerSubmission{
			{QuestionID: "q1", Selected: "4"},
			{QuestionID: "q2", Selected: "Pancreas"},
		},
		DurationSec: 42,
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if attempt.Score != 2 {
		t.Fatalf("expected score 2, got %d", attempt.Score)
	}
	if fx.attempts.Count() != 1 {
		t.Fatalf("expected 1 stored attempt, got %d", fx.attempts.Count())
	}

	entries, err := fx.leaderboard.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("topn failed: %v", err)
	}
	if len(entries) != 1 || entries[0].XP != 2 || entries[0].Streak != 1 {
		t.Fatalf("expected Alice with xp=2 streak=1, got %+v", entries)
	}
}

func TestSubmitRequiresUser(t *testing.T) {
	ctx := context.Background()
	fx := newSubmissionFixture(anatomyQuiz())

	_, err := fx.service.Submit(ctx, domain.TypeQuiz, "quiz-1", app.SubmitRequest{
		Answers: []domain.AnswerSubmission{{QuestionID: "q1", Selected: "4"}},
	})
	if !errors.Is(err, domain.ErrUserRequired) {
		t.Fatalf("expected ErrUserRequired, got %v", err)
	}
	if fx.attempts.Count() != 0 {
		t.Fatalf("nothing should be written on validation failure, got %d attempts", fx.attempts.Count())
	}
}

func TestSubmitWrongTypeReadsNotFound(t *testing.T) {
	ctx := context.Background()
	fx := newSubmissionFixture(anatomyQuiz())

	_, err := fx.service.Submit(ctx, domain.TypeExam, "quiz-1", app.SubmitRequest{
		UserID:  "u1",
		Answers: []domain.AnswerSubmission{{QuestionID: "q1", Selected: "4"}},
	})
	if !errors.Is(err, domain.ErrAssessmentNotFound) {
		t.Fatalf("expected ErrAssessmentNotFound, got %v", err)
	}
}

func TestRetakesAppendAndXPAccumulates(t *testing.T) {
	ctx := context.Background()
	fx := newSubmissionFixture(anatomyQuiz())

	for i := 0; i < 3; i++ {
		if _, err := fx.service.Submit(ctx, domain.TypeQuiz, "quiz-1", app.SubmitRequest{
			UserID:  "u1",
			Answers: []domain.AnswerSubmission{{QuestionID: "q1", Selected: "4"}},
		}); err != nil {
			t.Fatalf("submit %d failed: %v", i, err)
		}
	}

	if fx.attempts.Count() != 3 {
		t.Fatalf("retakes must append, got %d attempts", fx.attempts.Count())
	}
	entries, _ := fx.leaderboard.TopN(ctx, 1)
	if len(entries) != 1 || entries[0].XP != 3 {
		t.Fatalf("expected accumulated xp=3, got %+v", entries)
	}
	// Streak is set at creation and left alone on later credits.
	if entries[0].Streak != 1 {
		t.Fatalf("expected streak untouched at 1, got %d", entries[0].Streak)
	}
}

type failingLeaderboard struct{}

func (failingLeaderboard) CreditXP(context.Context, string, string, int) (domain.LeaderboardEntry, error) {
	return domain.LeaderboardEntry{}, errors.New("redis down")
}

func (failingLeaderboard) TopN(context.Context, int) ([]domain.LeaderboardEntry, error) {
	return nil, errors.New("redis down")
}

func TestSubmitSucceedsWhenXPCreditFails(t *testing.T) {
	ctx := context.Background()
	store := memory.NewAssessmentStore().Seed(anatomyQuiz())
	attempts := memory.NewAttemptRepository()
	service := app.NewSubmissionService(store, attempts, failingLeaderboard{}, zap.NewNop())

	attempt, err := service.Submit(ctx, domain.TypeQuiz, "quiz-1", app.SubmitRequest{
		UserID:  "u1",
		Answers: []domain.AnswerSubmission{{QuestionID: "q1", Selected: "4"}},
	})
	if err != nil {
		t.Fatalf("submission must survive a failed credit: %v", err)
	}
	if attempt.Score != 1 || attempts.Count() != 1 {
		t.Fatalf("attempt should still be recorded, got score=%d count=%d", attempt.Score, attempts.Count())
	}
}

func TestBoardOrdersByScoreThenDuration(t *testing.T) {
	ctx := context.Background()
	fx := newSubmissionFixture(anatomyQuiz())

	submit := func(userID string, answers []domain.AnswerSubmission, duration int) {
		t.Helper()
		if _, err := fx.service.Submit(ctx, domain.TypeQuiz, "quiz-1", app.SubmitRequest{
			UserID:      userID,
			Answers:     answers,
			DurationSec: duration,
		}); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}

	twoRight := []domain.AnswerSubmission{
		{QuestionID: "q1", Selected: "4"},
		{QuestionID: "q2", Selected: "Pancreas"},
	}
	oneRight := []domain.AnswerSubmission{{QuestionID: "q1", Selected: "4"}}

	submit("slow", twoRight, 30)
	submit("fast", twoRight, 20)
	submit("low", oneRight, 5)

	rows, err := fx.service.Board(ctx, domain.TypeQuiz, "quiz-1")
	if err != nil {
		t.Fatalf("board failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].UserID != "fast" || rows[1].UserID != "slow" || rows[2].UserID != "low" {
		t.Fatalf("unexpected order: %+v", rows)
	}
}

func TestBoardNameFallsBackToUserID(t *testing.T) {
	ctx := context.Background()
	fx := newSubmissionFixture(anatomyQuiz())

	if _, err := fx.service.Submit(ctx, domain.TypeQuiz, "quiz-1", app.SubmitRequest{
		UserID:  "u1",
		Answers: []domain.AnswerSubmission{{QuestionID: "q1", Selected: "4"}},
	}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	rows, _ := fx.service.Board(ctx, domain.TypeQuiz, "quiz-1")
	if len(rows) != 1 || rows[0].UserName != "u1" {
		t.Fatalf("expected userID as display name, got %+v", rows)
	}
}
