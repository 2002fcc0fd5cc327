package repository

import (
	"fmt"
	"time"

	"github.com/rongwang/deductible-server/internal/models"
	"github.com/rongwang/deductible-server/internal/utils"
)

// isStale reports whether a write whose caller last saw lastKnown must be
// rejected because the stored row is at least as new. A nil lastKnown means
// the caller sent no precondition and the write always proceeds.
//
// lastKnown is truncated to canonical microsecond precision before the
// comparison, so it compares the same way a stored stamp would.
func isStale(stored string, lastKnown *string) (bool, error) {
	if lastKnown == nil {
		return false, nil
	}
	known, err := utils.NormalizeTimestamp(*lastKnown)
	if err != nil {
		return false, fmt.Errorf("%w: lastKnownUpdatedAt: %v", models.ErrInvalidInput, err)
	}
	if utils.IsCanonicalTimestamp(stored) {
		return stored >= known, nil
	}

	current, err := utils.ParseTimestamp(stored)
	if err != nil {
		// Legacy rows with unparseable stamps fall back to text order.
		return stored >= known, nil
	}
	return utils.FormatTimestamp(current) >= known, nil
}

// nextTimestamp returns a canonical timestamp strictly after previous, so
// updated_at never repeats for one record even when the clock does.
func nextTimestamp(previous string) string {
	now := utils.Now()
	if !utils.IsCanonicalTimestamp(previous) || now > previous {
		return now
	}
	t, _ := utils.ParseTimestamp(previous)
	return utils.FormatTimestamp(t.Add(time.Microsecond))
}
