package evolution

import apperrors "github.com/louisbranch/storyquest/internal/platform/errors"

var (
	// ErrNotFound indicates a missing character evolution record.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "character evolution not found")
	// ErrInvalidImportance indicates a plot contribution importance outside 1..5.
	ErrInvalidImportance = apperrors.New(apperrors.CodeInvalidArgument, "importance must be between 1 and 5")
	// ErrInvalidStatus indicates an unrecognized character status.
	ErrInvalidStatus = apperrors.New(apperrors.CodeInvalidArgument, "status must be active, deceased or missing")
	// ErrEmptyTrait indicates a blank trait.
	ErrEmptyTrait = apperrors.New(apperrors.CodeInvalidArgument, "trait is required")
	// ErrEmptyKey indicates a record key with a blank part.
	ErrEmptyKey = apperrors.New(apperrors.CodeInvalidArgument, "user, character and story ids are required")
)
