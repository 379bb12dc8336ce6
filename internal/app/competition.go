package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"medicohub-assessment-service/internal/domain"
)

// CompetitionConfig tunes competition behavior. EnforceWindow rejects
// attempts outside the start/end dates; it is off by default because
// historical clients submit outside the window.
type CompetitionConfig struct {
	EnforceWindow bool
}

// CompetitionService runs group competitions: it attributes scored
// attempts to the submitting user's group and keeps running standings.
type CompetitionService struct {
	comps       CompetitionRepository
	groups      GroupRepository
	reader      AssessmentReader
	submissions *SubmissionService
	cfg         CompetitionConfig
	log         *zap.Logger
	now         func() time.Time
	hub         *standingsHub
}

func NewCompetitionService(comps CompetitionRepository, groups GroupRepository, reader AssessmentReader, submissions *SubmissionService, cfg CompetitionConfig, log *zap.Logger) *CompetitionService {
	return &CompetitionService{
		comps:       comps,
		groups:      groups,
		reader:      reader,
		submissions: submissions,
		cfg:         cfg,
		log:         log,
		now:         time.Now,
		hub:         newStandingsHub(),
	}
}

// WithClock fixes the service clock for deterministic tests.
func (s *CompetitionService) WithClock(now func() time.Time) *CompetitionService {
	s.now = now
	return s
}

type CreateCompetitionRequest struct {
	Title     string                `json:"title"`
	Type      domain.AssessmentType `json:"type"`
	TargetID  string                `json:"targetId"`
	GroupIDs  []string              `json:"groups"`
	StartDate time.Time             `json:"startDate"`
	EndDate   time.Time             `json:"endDate"`
}

func (s *CompetitionService) Create(ctx context.Context, req CreateCompetitionRequest) (domain.Competition, error) {
	if req.Title == "" || req.TargetID == "" || (req.Type != domain.TypeQuiz && req.Type != domain.TypeExam) {
		return domain.Competition{}, domain.ErrCompetitionInvalid
	}
	comp := domain.Competition{
		ID:        uuid.NewString(),
		Title:     req.Title,
		Type:      req.Type,
		TargetID:  req.TargetID,
		GroupIDs:  req.GroupIDs,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Results:   []domain.GroupResult{},
		CreatedAt: s.now(),
	}
	if err := s.comps.CreateCompetition(ctx, comp); err != nil {
		return domain.Competition{}, err
	}
	s.log.Info("competition created", zap.String("id", comp.ID), zap.String("title", comp.Title))
	return comp, nil
}

func (s *CompetitionService) Get(ctx context.Context, id string) (domain.Competition, error) {
	return s.comps.GetCompetition(ctx, id)
}

// SubmitAttempt grades a submission against the competition's target,
// records the attempt, and adds the score to the submitting user's
// group tally. groupID is an explicit fallback for when membership
// records cannot place the user.
func (s *CompetitionService) SubmitAttempt(ctx context.Context, competitionID, groupID string, req SubmitRequest) (domain.Attempt, domain.Standings, error) {
	comp, err := s.comps.GetCompetition(ctx, competitionID)
	if err != nil {
		return domain.Attempt{}, domain.Standings{}, err
	}
	if req.UserID == "" {
		return domain.Attempt{}, domain.Standings{}, domain.ErrUserRequired
	}
	if s.cfg.EnforceWindow && !s.withinWindow(comp) {
		return domain.Attempt{}, domain.Standings{}, domain.ErrCompetitionNotActive
	}

	resolved := s.resolveGroup(ctx, comp, req.UserID)
	if resolved == "" {
		resolved = groupID
	}
	if resolved == "" {
		return domain.Attempt{}, domain.Standings{}, domain.ErrGroupUnresolved
	}

	target, err := s.reader.GetAssessment(ctx, comp.TargetID)
	if err != nil {
		return domain.Attempt{}, domain.Standings{}, err
	}
	if target.Type != comp.Type {
		return domain.Attempt{}, domain.Standings{}, domain.ErrAssessmentNotFound
	}

	attempt, err := s.submissions.recordScored(ctx, comp.Type, target, req)
	if err != nil {
		return domain.Attempt{}, domain.Standings{}, err
	}

	if err := s.comps.ApplyResult(ctx, comp.ID, resolved, req.UserID, attempt.Score); err != nil {
		return domain.Attempt{}, domain.Standings{}, err
	}

	standings, err := s.Standings(ctx, comp.ID)
	if err != nil {
		return domain.Attempt{}, domain.Standings{}, err
	}
	s.hub.broadcast(comp.ID, standings)
	return attempt, standings, nil
}

// Standings returns the competition leaderboard sorted by score
// descending; ties keep their stored order.
func (s *CompetitionService) Standings(ctx context.Context, competitionID string) (domain.Standings, error) {
	if _, err := s.comps.GetCompetition(ctx, competitionID); err != nil {
		return domain.Standings{}, err
	}
	results, err := s.comps.Results(ctx, competitionID)
	if err != nil {
		return domain.Standings{}, err
	}

	entries := make([]domain.Standing, 0, len(results))
	for _, r := range results {
		name := r.GroupID
		if g, err := s.groups.GetGroup(ctx, r.GroupID); err == nil {
			name = g.Name
		}
		entries = append(entries, domain.Standing{
			GroupID:      r.GroupID,
			GroupName:    name,
			Score:        r.Score,
			Participants: len(r.Participants),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	return domain.Standings{
		CompetitionID: competitionID,
		Entries:       entries,
		UpdatedAt:     s.now(),
	}, nil
}

// Subscribe returns a channel receiving standings updates for a
// competition, primed with the current snapshot. The caller must invoke
// the returned cancel function to avoid leaks.
func (s *CompetitionService) Subscribe(ctx context.Context, competitionID string) (<-chan domain.Standings, func(), error) {
	initial, err := s.Standings(ctx, competitionID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.hub.subscribe(competitionID)
	ch <- initial
	return ch, cancel, nil
}

// resolveGroup places the user by membership within the competition's
// groups. Lookup failures read as "membership data unavailable" and
// defer to the caller-supplied group.
func (s *CompetitionService) resolveGroup(ctx context.Context, comp domain.Competition, userID string) string {
	groups, err := s.groups.GetGroups(ctx, comp.GroupIDs)
	if err != nil {
		return ""
	}
	for _, g := range groups {
		for _, m := range g.Members {
			if m == userID {
				return g.ID
			}
		}
	}
	return ""
}

func (s *CompetitionService) withinWindow(comp domain.Competition) bool {
	now := s.now()
	if !comp.StartDate.IsZero() && now.Before(comp.StartDate) {
		return false
	}
	if !comp.EndDate.IsZero() && now.After(comp.EndDate) {
		return false
	}
	return true
}

// standingsHub fans standings snapshots out to websocket subscribers,
// keyed by competition.
type standingsHub struct {
	mu   sync.Mutex
	subs map[string]map[chan domain.Standings]struct{}
}

func newStandingsHub() *standingsHub {
	return &standingsHub{subs: make(map[string]map[chan domain.Standings]struct{})}
}

func (h *standingsHub) subscribe(competitionID string) (chan domain.Standings, func()) {
	ch := make(chan domain.Standings, 8)

	h.mu.Lock()
	if h.subs[competitionID] == nil {
		h.subs[competitionID] = make(map[chan domain.Standings]struct{})
	}
	h.subs[competitionID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[competitionID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, competitionID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *standingsHub) broadcast(competitionID string, standings domain.Standings) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[competitionID] {
		select {
		case ch <- standings:
		default:
			// Drop the stale snapshot so a slow client never blocks the rest.
			select {
			case <-ch:
			default:
			}
			ch <- standings
		}
	}
}
