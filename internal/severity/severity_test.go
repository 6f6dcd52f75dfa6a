package severity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/ar-tracker/pkg/util/errorutil"
)

func TestParseWindow(t *testing.T) {
	tests := []struct {
		label  string
		wantMS int64
	}{
		{"5 days", 432000000},
		{"60seconds", 60000},
		{"1 day", 86400000},
		{"15 days", 15 * 86400000},
		{"45days", 45 * 86400000},
		{"2 hours", 7200000},
		{"30minutes", 1800000},
		{"1 second", 1000},
		{"  10 Minutes ", 600000},
		{"0 seconds", 0},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := ParseWindow(tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMS, got.Milliseconds())
		})
	}
}

func TestParseWindowRejectsUnknownFormats(t *testing.T) {
	for _, label := range []string{"abc", "", "High", "5", "days", "5 weeks", "-3 days", "1.5 hours", "5 days ago", "99999999999999999999 days"} {
		t.Run(label, func(t *testing.T) {
			d, err := ParseWindow(label)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidSeverityFormat))
			assert.Zero(t, d)
		})
	}
}

func TestWindow(t *testing.T) {
	d, ok := Window("60seconds")
	assert.True(t, ok)
	assert.Equal(t, time.Minute, d)

	_, ok = Window("P1")
	assert.False(t, ok)
}
