// Package severity turns severity labels such as "5 days" or "60seconds" into SLA windows.
package severity

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/spec-kit/ar-tracker/pkg/util/errorutil"
)

var labelPattern = regexp.MustCompile(`^(\d+)\s*(second|minute|hour|day)s?$`)

var units = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
}

// ParseWindow returns the maximum age a ticket of this severity may reach while in progress.
// Labels that do not match <integer><unit> fail with ErrInvalidSeverityFormat; callers must
// read that as "no SLA enforced", never as a zero window.
func ParseWindow(label string) (time.Duration, error) {
	normalized := strings.ToLower(strings.TrimSpace(label))
	match := labelPattern.FindStringSubmatch(normalized)
	if match == nil {
		return 0, apperrors.NewInvalidSeverityFormat(label)
	}
	count, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, apperrors.NewInvalidSeverityFormat(label)
	}
	unit := units[match[2]]
	if count > int64(math.MaxInt64/unit) {
		return 0, apperrors.NewInvalidSeverityFormat(label)
	}
	return time.Duration(count) * unit, nil
}

// Window is ParseWindow reduced to a presence flag.
func Window(label string) (time.Duration, bool) {
	d, err := ParseWindow(label)
	if err != nil {
		return 0, false
	}
	return d, true
}
