package domain

import "errors"

var (
	// ErrUserRequired is returned when a submission carries no user identity.
	ErrUserRequired = errors.New("userId required")
	// ErrTitleRequired is returned when an assessment is created without a title or topic.
	ErrTitleRequired = errors.New("title or topic required")
	// ErrAssessmentNotFound indicates the referenced quiz or exam does not exist.
	ErrAssessmentNotFound = errors.New("assessment not found")
	// ErrGroupNotFound indicates the referenced group does not exist.
	ErrGroupNotFound = errors.New("group not found")
	// ErrCompetitionNotFound indicates the referenced competition does not exist.
	ErrCompetitionNotFound = errors.New("competition not found")
	// ErrNameRequired is returned when a group is created without a name.
	ErrNameRequired = errors.New("name required")
	// ErrCompetitionInvalid is returned when a competition is created without
	// its required fields.
	ErrCompetitionInvalid = errors.New("title, type and targetId required")
	// ErrGroupUnresolved is returned when neither membership records nor the
	// request determine which group a competition attempt belongs to.
	ErrGroupUnresolved = errors.New("could not determine user's group")
	// ErrCompetitionNotActive is returned, when window enforcement is enabled,
	// for attempts outside the competition's start/end dates.
	ErrCompetitionNotActive = errors.New("competition not active")
)
