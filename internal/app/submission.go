package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medicohub-assessment-service/internal/domain"
)

// boardLimit caps per-assessment leaderboards.
const boardLimit = 50

// SubmissionService runs the shared submission flow for quizzes and
// exams: load the target, grade, append the attempt, credit XP.
type SubmissionService struct {
	reader      AssessmentReader
	attempts    AttemptRepository
	leaderboard LeaderboardStore
	log         *zap.Logger
	now         func() time.Time
	newID       func() string
}

func NewSubmissionService(reader AssessmentReader, attempts AttemptRepository, leaderboard LeaderboardStore, log *zap.Logger) *SubmissionService {
	return &SubmissionService{
		reader:      reader,
		attempts:    attempts,
		leaderboard: leaderboard,
		log:         log,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// WithClock fixes the service clock for deterministic timestamps in tests.
func (s *SubmissionService) WithClock(now func() time.Time) *SubmissionService {
	s.now = now
	return s
}

// SubmitRequest carries one user's answers for one assessment. UserName
// travels with the submission because the service has no user store to
// resolve display names from.
type SubmitRequest struct {
	UserID      string                    `json:"userId"`
	UserName    string                    `json:"name"`
	Answers     []domain.AnswerSubmission `json:"answers"`
	DurationSec int                       `json:"durationSec"`
}

// Submit grades and records one attempt against an assessment of the
// given type. The attempt write is authoritative: its failure fails the
// submission with nothing recorded. The XP credit is best effort.
func (s *SubmissionService) Submit(ctx context.Context, typ domain.AssessmentType, assessmentID string, req SubmitRequest) (domain.Attempt, error) {
	assessment, err := s.reader.GetAssessment(ctx, assessmentID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if assessment.Type != typ {
		return domain.Attempt{}, domain.ErrAssessmentNotFound
	}
	return s.recordScored(ctx, typ, assessment, req)
}

// recordScored is shared with the competition flow, which resolves its
// target assessment itself.
func (s *SubmissionService) recordScored(ctx context.Context, typ domain.AssessmentType, assessment domain.Assessment, req SubmitRequest) (domain.Attempt, error) {
	if req.UserID == "" {
		return domain.Attempt{}, domain.ErrUserRequired
	}

	records, score := Score(assessment, req.Answers)
	attempt := domain.Attempt{
		ID:          s.newID(),
		UserID:      req.UserID,
		UserName:    req.UserName,
		Type:        typ,
		TargetID:    assessment.ID,
		Answers:     records,
		Score:       score,
		DurationSec: req.DurationSec,
		CreatedAt:   s.now(),
	}
	if err := s.attempts.SaveAttempt(ctx, attempt); err != nil {
		return domain.Attempt{}, err
	}

	// Best effort: a failed credit leaves the attempt recorded and the
	// submission successful.
	if _, err := s.leaderboard.CreditXP(ctx, req.UserID, req.UserName, score); err != nil {
		s.log.Warn("failed to update leaderboard",
			zap.String("userId", req.UserID),
			zap.Error(err))
	}
	return attempt, nil
}

// Board returns the top attempts for one assessment, best score first,
// faster attempt first on equal scores, capped at 50 rows.
func (s *SubmissionService) Board(ctx context.Context, typ domain.AssessmentType, targetID string) ([]domain.BoardRow, error) {
	attempts, err := s.attempts.TopAttempts(ctx, typ, targetID, boardLimit)
	if err != nil {
		return nil, err
	}
	rows := make([]domain.BoardRow, 0, len(attempts))
	for _, a := range attempts {
		name := a.UserName
		if name == "" {
			name = a.UserID
		}
		rows = append(rows, domain.BoardRow{
			UserID:      a.UserID,
			UserName:    name,
			Score:       a.Score,
			DurationSec: a.DurationSec,
			Date:        a.CreatedAt,
		})
	}
	return rows, nil
}

// TopUsers returns the global XP leaderboard.
func (s *SubmissionService) TopUsers(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	if n <= 0 || n > boardLimit {
		n = boardLimit
	}
	return s.leaderboard.TopN(ctx, n)
}
