// Package stats derives dashboard counts from the resident directory and the
// ledger.
package stats

import (
	"time"

	"hostelgate/internal/movement/models"
	residentModel "hostelgate/internal/resident/models"
)

// DayBounds returns [start of day, start of next day) for now in loc.
func DayBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// Snapshot counts residents by cached status and today's movements by kind.
// Movements outside today's window in loc are ignored, so callers may pass
// the whole ledger or a pre-filtered slice.
func Snapshot(residents []*residentModel.Resident, movements []*models.Movement, now time.Time, loc *time.Location) models.DashboardStats {
	out := models.DashboardStats{Total: len(residents), AsOf: now}
	for _, r := range residents {
		switch r.CurrentStatus {
		case residentModel.StatusInFacility:
			out.Inside++
		case residentModel.StatusOutside:
			out.Outside++
		}
	}

	start, end := DayBounds(now, loc)
	for _, m := range movements {
		if m.Timestamp.Before(start) || !m.Timestamp.Before(end) {
			continue
		}
		switch m.Kind {
		case models.KindExit:
			out.LeftToday++
		case models.KindEnter:
			out.ReturnedToday++
		}
	}
	return out
}
