package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medicohub-assessment-service/internal/domain"
)

// AssessmentWriter persists new assessments and lists existing ones.
type AssessmentWriter interface {
	CreateAssessment(ctx context.Context, a domain.Assessment) error
	ListAssessments(ctx context.Context, typ domain.AssessmentType) ([]domain.Assessment, error)
}

// AssessmentReader loads assessments by ID. Production wiring puts a
// TTL cache (Redis or in-memory) in front of the backing store.
type AssessmentReader interface {
	GetAssessment(ctx context.Context, id string) (domain.Assessment, error)
}

// AttemptRepository is the append-only attempt log.
type AttemptRepository interface {
	SaveAttempt(ctx context.Context, attempt domain.Attempt) error
	// TopAttempts returns attempts for one assessment sorted by score
	// descending, then duration ascending, capped at limit.
	TopAttempts(ctx context.Context, typ domain.AssessmentType, targetID string, limit int) ([]domain.Attempt, error)
}

// LeaderboardStore keys cumulative XP by user identity.
type LeaderboardStore interface {
	// CreditXP creates the entry (xp=amount, streak=1) or increments xp,
	// touching lastActive either way.
	CreditXP(ctx context.Context, userID, name string, amount int) (domain.LeaderboardEntry, error)
	TopN(ctx context.Context, n int) ([]domain.LeaderboardEntry, error)
}

// GroupRepository stores named member sets.
type GroupRepository interface {
	CreateGroup(ctx context.Context, g domain.Group) error
	GetGroup(ctx context.Context, id string) (domain.Group, error)
	// AddMember is a set insert; adding an existing member is a no-op.
	AddMember(ctx context.Context, groupID, userID string) (domain.Group, error)
	GetGroups(ctx context.Context, ids []string) ([]domain.Group, error)
}

// CompetitionRepository stores competitions and their per-group tallies.
type CompetitionRepository interface {
	CreateCompetition(ctx context.Context, c domain.Competition) error
	GetCompetition(ctx context.Context, id string) (domain.Competition, error)
	// ApplyResult adds score to the group's running total, creating the
	// result entry on first use, and records the user as a participant
	// (set semantics).
	ApplyResult(ctx context.Context, competitionID, groupID, userID string, score int) error
	Results(ctx context.Context, competitionID string) ([]domain.GroupResult, error)
}

// AssessmentService covers authoring and retrieval of quizzes and exams.
type AssessmentService struct {
	writer AssessmentWriter
	reader AssessmentReader
	log    *zap.Logger
	now    func() time.Time
}

func NewAssessmentService(writer AssessmentWriter, reader AssessmentReader, log *zap.Logger) *AssessmentService {
	return &AssessmentService{writer: writer, reader: reader, log: log, now: time.Now}
}

type CreateQuizRequest struct {
	Title      string            `json:"title"`
	Topic      string            `json:"topic"`
	Difficulty string            `json:"difficulty"`
	Questions  []domain.Question `json:"questions"`
}

type CreateExamRequest struct {
	Title       string            `json:"title"`
	DurationMin int               `json:"duration"`
	Questions   []domain.Question `json:"questions"`
}

// CreateQuiz requires a title or topic; the topic doubles as the title
// when no title is given. Difficulty defaults to "medium".
func (s *AssessmentService) CreateQuiz(ctx context.Context, req CreateQuizRequest) (domain.Assessment, error) {
	title := req.Title
	if title == "" {
		title = req.Topic
	}
	if title == "" {
		return domain.Assessment{}, domain.ErrTitleRequired
	}
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = "medium"
	}

	quiz := domain.Assessment{
		ID:         uuid.NewString(),
		Type:       domain.TypeQuiz,
		Title:      title,
		Topic:      req.Topic,
		Difficulty: difficulty,
		Questions:  ensureQuestionIDs(req.Questions),
		CreatedAt:  s.now(),
	}
	if err := s.writer.CreateAssessment(ctx, quiz); err != nil {
		return domain.Assessment{}, err
	}
	s.log.Info("quiz created", zap.String("id", quiz.ID), zap.String("title", quiz.Title))
	return quiz, nil
}

// CreateExam requires a title. Duration defaults to 60 minutes.
func (s *AssessmentService) CreateExam(ctx context.Context, req CreateExamRequest) (domain.Assessment, error) {
	if req.Title == "" {
		return domain.Assessment{}, domain.ErrTitleRequired
	}
	duration := req.DurationMin
	if duration == 0 {
		duration = 60
	}

	exam := domain.Assessment{
		ID:          uuid.NewString(),
		Type:        domain.TypeExam,
		Title:       req.Title,
		DurationMin: duration,
		Questions:   ensureQuestionIDs(req.Questions),
		CreatedAt:   s.now(),
	}
	if err := s.writer.CreateAssessment(ctx, exam); err != nil {
		return domain.Assessment{}, err
	}
	s.log.Info("exam created", zap.String("id", exam.ID), zap.String("title", exam.Title))
	return exam, nil
}

// Get loads one assessment and checks it is of the expected type; a quiz
// requested through the exam surface (or vice versa) reads as not found.
func (s *AssessmentService) Get(ctx context.Context, typ domain.AssessmentType, id string) (domain.Assessment, error) {
	a, err := s.reader.GetAssessment(ctx, id)
	if err != nil {
		return domain.Assessment{}, err
	}
	if a.Type != typ {
		return domain.Assessment{}, domain.ErrAssessmentNotFound
	}
	return a, nil
}

func (s *AssessmentService) List(ctx context.Context, typ domain.AssessmentType) ([]domain.Assessment, error) {
	return s.writer.ListAssessments(ctx, typ)
}

// ensureQuestionIDs assigns IDs to questions that arrive without one, so
// later submissions can match by ID instead of prompt text.
func ensureQuestionIDs(questions []domain.Question) []domain.Question {
	out := make([]domain.Question, len(questions))
	copy(out, questions)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = uuid.NewString()
		}
	}
	return out
}

// GroupService covers group creation and membership.
type GroupService struct {
	groups GroupRepository
	log    *zap.Logger
}

func NewGroupService(groups GroupRepository, log *zap.Logger) *GroupService {
	return &GroupService{groups: groups, log: log}
}

func (s *GroupService) Create(ctx context.Context, name string) (domain.Group, error) {
	if name == "" {
		return domain.Group{}, domain.ErrNameRequired
	}
	g := domain.Group{ID: uuid.NewString(), Name: name, Members: []string{}}
	if err := s.groups.CreateGroup(ctx, g); err != nil {
		return domain.Group{}, err
	}
	return g, nil
}

// Join adds a user to the group's member set; joining twice is a no-op.
func (s *GroupService) Join(ctx context.Context, groupID, userID string) (domain.Group, error) {
	if userID == "" {
		return domain.Group{}, domain.ErrUserRequired
	}
	return s.groups.AddMember(ctx, groupID, userID)
}
