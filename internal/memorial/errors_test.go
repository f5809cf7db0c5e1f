package memorial

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anoixa/mozaiek/internal/access"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := newError(NotFound, "memorial.FetchMemorial", "memorial abc", errors.New("record not found"))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, NotFound, KindOf(err))

	wrapped := fmt.Errorf("handler: %w", err)
	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.Equal(t, NotFound, KindOf(wrapped))
}

func TestError_Message(t *testing.T) {
	err := newError(InvalidInput, "memorial.AddMemory", "message is required", nil)
	assert.Equal(t, "memorial.AddMemory: invalid input: message is required", err.Error())

	err = newError(Unauthorized, "memorial.AddMemory", "", &LockedError{Reason: access.CredentialInvalid})
	assert.Equal(t, "memorial.AddMemory: unauthorized: memorial is locked (credential_invalid)", err.Error())
}

func TestKindOf_Unknown(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}
