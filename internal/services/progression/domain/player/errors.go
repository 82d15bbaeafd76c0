package player

import apperrors "github.com/louisbranch/storyquest/internal/platform/errors"

var (
	// ErrUnknownCharacter indicates a relationship change for a character the
	// player never encountered.
	ErrUnknownCharacter = apperrors.New(apperrors.CodeUnknownCharacter, "character was never encountered")
	// ErrEmptyUserID indicates a missing user id.
	ErrEmptyUserID = apperrors.New(apperrors.CodeInvalidArgument, "user id is required")
	// ErrEmptyCharacterID indicates a missing character id.
	ErrEmptyCharacterID = apperrors.New(apperrors.CodeInvalidArgument, "character id is required")
)
