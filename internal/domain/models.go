package domain

import "time"

// AssessmentType distinguishes quizzes from exams. Attempts and
// competitions carry the same tag so boards can be filtered by it.
type AssessmentType string

const (
	TypeQuiz AssessmentType = "quiz"
	TypeExam AssessmentType = "exam"
)

// Question models an MCQ question. CorrectAnswer holds the designated
// option value itself, not an option index.
type Question struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// Assessment is a quiz or exam: an ordered set of questions.
// Difficulty applies to quizzes, DurationMin to exams.
type Assessment struct {
	ID          string         `json:"id"`
	Type        AssessmentType `json:"type"`
	Title       string         `json:"title"`
	Topic       string         `json:"topic,omitempty"`
	Difficulty  string         `json:"difficulty,omitempty"`
	DurationMin int            `json:"durationMin,omitempty"`
	Questions   []Question     `json:"questions"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// AnswerSubmission is one submitted answer. QuestionText is a legacy
// fallback used to match questions that were stored without stable IDs.
type AnswerSubmission struct {
	QuestionID   string `json:"questionId"`
	QuestionText string `json:"questionText,omitempty"`
	Selected     string `json:"selected"`
}

// AnswerRecord is a scored answer as persisted on an attempt.
type AnswerRecord struct {
	QuestionID string `json:"questionId"`
	Selected   string `json:"selected"`
	Correct    bool   `json:"correct"`
}

// Attempt records one user's submission against one assessment.
// Attempts are append-only; retakes create new records.
type Attempt struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	UserName    string         `json:"userName,omitempty"`
	Type        AssessmentType `json:"type"`
	TargetID    string         `json:"targetId"`
	Answers     []AnswerRecord `json:"answers"`
	Score       int            `json:"score"`
	DurationSec int            `json:"durationSec"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// BoardRow is one row of a per-assessment leaderboard.
type BoardRow struct {
	UserID      string    `json:"userId"`
	UserName    string    `json:"user"`
	Score       int       `json:"score"`
	DurationSec int       `json:"time"`
	Date        time.Time `json:"date"`
}

// Group is a named set of user identities.
type Group struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// GroupResult is a competition's running tally for one group.
// Participants is a set; Score is not deduplicated per user.
type GroupResult struct {
	GroupID      string   `json:"groupId"`
	Score        int      `json:"score"`
	Participants []string `json:"participants"`
}

// Competition is a contest between groups over one target assessment.
type Competition struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Type      AssessmentType `json:"type"`
	TargetID  string         `json:"targetId"`
	GroupIDs  []string       `json:"groups"`
	StartDate time.Time      `json:"startDate,omitempty"`
	EndDate   time.Time      `json:"endDate,omitempty"`
	Results   []GroupResult  `json:"results"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Standing is one row of a competition leaderboard.
type Standing struct {
	GroupID      string `json:"groupId"`
	GroupName    string `json:"group"`
	Score        int    `json:"score"`
	Participants int    `json:"participants"`
}

// Standings captures the ordered scoreboard of a competition.
type Standings struct {
	CompetitionID string     `json:"competitionId"`
	Entries       []Standing `json:"entries"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// LeaderboardEntry is a user's cumulative XP record. XP only ever
// grows; Streak is initialized to 1 and not recomputed by scoring.
type LeaderboardEntry struct {
	UserID     string    `json:"userId"`
	Name       string    `json:"name"`
	XP         int       `json:"xp"`
	Streak     int       `json:"streak"`
	LastActive time.Time `json:"lastActive"`
}
