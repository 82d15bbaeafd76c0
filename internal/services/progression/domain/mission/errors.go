package mission

import apperrors "github.com/louisbranch/storyquest/internal/platform/errors"

var (
	// ErrNotFound indicates a mission that does not exist for the caller.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "mission not found")
	// ErrNotActive indicates a mutation on a mission already in a terminal state.
	ErrNotActive = apperrors.New(apperrors.CodeMissionNotActive, "mission is not active")
	// ErrInvalidProgress indicates a progress value outside 0..100.
	ErrInvalidProgress = apperrors.New(apperrors.CodeMissionInvalidProgress, "progress must be between 0 and 100")
	// ErrInvalidReward indicates a non-positive reward amount.
	ErrInvalidReward = apperrors.New(apperrors.CodeInvalidAmount, "reward amount must be positive")
	// ErrEmptyUserID indicates a mission without an owner.
	ErrEmptyUserID = apperrors.New(apperrors.CodeInvalidArgument, "user id is required")
	// ErrInvalidDifficulty indicates an unrecognized difficulty label.
	ErrInvalidDifficulty = apperrors.New(apperrors.CodeInvalidArgument, "difficulty must be easy, medium or hard")
)
