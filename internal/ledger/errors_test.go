package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "", ErrorCode(nil))
	assert.Equal(t, "", ErrorCode(errors.New("disk on fire")))
	assert.Equal(t, "not_found", ErrorCode(fmt.Errorf("account 7: %w", ErrNotFound)))
	assert.Equal(t, "duplicate_key", ErrorCode(ErrDuplicateKey))
	assert.True(t, IsDomainError(fmt.Errorf("x: %w", ErrInsufficientFunds)))
	assert.False(t, IsDomainError(errors.New("other")))

	seen := map[string]bool{}
	for _, ec := range errorCodes {
		assert.False(t, seen[ec.code], "duplicate code %s", ec.code)
		seen[ec.code] = true
	}
}
