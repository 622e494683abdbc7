package apperrors

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aidos-dev/meetsync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("missing")))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("handler: %w", InvalidState("bad transition"))
	assert.True(t, IsKind(err, KindInvalidState))
}

func TestConflictCarriesInterval(t *testing.T) {
	interval := models.TimeInterval{
		Start: time.Date(2030, time.June, 10, 14, 0, 0, 0, time.UTC),
		End:   time.Date(2030, time.June, 10, 15, 0, 0, 0, time.UTC),
	}
	err := Conflict(&interval, "time taken")

	var appErr *Error
	require.ErrorAs(t, err, &appErr)
	require.NotNil(t, appErr.Conflict)
	assert.Equal(t, interval.Start, appErr.Conflict.Start)
}

func TestUnavailableWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Unavailable(cause, "feed fetch failed")

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "UNAVAILABLE")
	assert.Contains(t, err.Error(), "connection refused")
}
