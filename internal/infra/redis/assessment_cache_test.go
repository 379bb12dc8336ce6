package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"medicohub-assessment-service/internal/domain"
)

type countingLoader struct {
	assessments map[string]domain.Assessment
	calls       int
}

func (l *countingLoader) LoadAssessment(_ context.Context, id string) (domain.Assessment, error) {
	l.calls++
	if a, ok := l.assessments[id]; ok {
		return a, nil
	}
	return domain.Assessment{}, domain.ErrAssessmentNotFound
}

func TestAssessmentCacheHitsRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	loader := &countingLoader{assessments: map[string]domain.Assessment{
		"quiz-1": {
			ID:   "quiz-1",
			Type: domain.TypeQuiz,
			Questions: []domain.Question{
				{ID: "q1", Prompt: "What is 2 + 2?", Options: []string{"3", "4"}, CorrectAnswer: "4"},
			},
		},
	}}
	cache := NewAssessmentCache(client, loader, time.Minute)

	got, err := cache.GetAssessment(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get assessment: %v", err)
	}
	if got.ID != "quiz-1" || len(got.Questions) != 1 {
		t.Fatalf("unexpected assessment: %+v", got)
	}
	if !mr.Exists("assessment:quiz-1") {
		t.Fatalf("expected cached redis key")
	}

	if _, err := cache.GetAssessment(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get assessment 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestAssessmentCacheMissPropagates(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewAssessmentCache(client, &countingLoader{assessments: map[string]domain.Assessment{}}, time.Minute)

	if _, err := cache.GetAssessment(context.Background(), "missing"); err != domain.ErrAssessmentNotFound {
		t.Fatalf("expected ErrAssessmentNotFound, got %v", err)
	}
}
