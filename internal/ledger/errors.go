package ledger

import (
	"errors"

	"github.com/roach88/acctree/internal/index"
)

// Domain errors. Callers match them with errors.Is; returned errors wrap
// them with the account numbers involved.
var (
	// ErrDuplicateKey: an account with that number already exists.
	ErrDuplicateKey = index.ErrDuplicateKey

	// ErrNotFound: no account with that number.
	ErrNotFound = errors.New("account not found")

	// ErrInsufficientFunds: withdraw or transfer exceeds the balance.
	ErrInsufficientFunds = errors.New("insufficient balance")

	// ErrBadAmount: amount must be > 0, opening balance must be >= 0.
	ErrBadAmount = errors.New("invalid amount")

	// ErrBadRate: interest rate must be >= 0.
	ErrBadRate = errors.New("invalid interest rate")

	// ErrSameAccount: transfer source and destination are the same.
	ErrSameAccount = errors.New("cannot transfer to the same account")

	// ErrBadSecret: PIN is malformed or does not match.
	ErrBadSecret = errors.New("invalid PIN")

	// ErrBadName: holder name is empty after normalisation.
	ErrBadName = errors.New("invalid account holder name")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrDuplicateKey, "duplicate_key"},
	{ErrNotFound, "not_found"},
	{ErrInsufficientFunds, "insufficient_funds"},
	{ErrBadAmount, "bad_amount"},
	{ErrBadRate, "bad_rate"},
	{ErrSameAccount, "same_account"},
	{ErrBadSecret, "bad_secret"},
	{ErrBadName, "bad_name"},
}

// ErrorCode returns a stable snake_case name for a domain error, or ""
// when err is nil or not a domain error.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return ""
}

// IsDomainError reports whether err is one of the ledger's domain errors.
func IsDomainError(err error) bool {
	return ErrorCode(err) != ""
}
