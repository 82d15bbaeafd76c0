package ledger

import apperrors "github.com/louisbranch/storyquest/internal/platform/errors"

var (
	// ErrInsufficientFunds indicates a debit larger than the available balance.
	ErrInsufficientFunds = apperrors.New(apperrors.CodeInsufficientFunds, "insufficient funds")
	// ErrInvalidAmount indicates a non-positive amount where a positive one is required.
	ErrInvalidAmount = apperrors.New(apperrors.CodeInvalidAmount, "amount must be positive")
)
