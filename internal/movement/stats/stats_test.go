package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"hostelgate/internal/movement/models"
	residentModel "hostelgate/internal/resident/models"
)

func TestDayBounds(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	// 20:00 UTC on the 9th is 01:30 on the 10th in IST
	now := time.Date(2024, 5, 9, 20, 0, 0, 0, time.UTC)

	start, end := DayBounds(now, loc)

	assert.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2024, 5, 11, 0, 0, 0, 0, loc), end)
}

func TestSnapshot(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 5, 10, 18, 0, 0, 0, loc)
	residents := []*residentModel.Resident{
		{ID: 1, CurrentStatus: residentModel.StatusInFacility},
		{ID: 2, CurrentStatus: residentModel.StatusOutside},
		{ID: 3, CurrentStatus: residentModel.StatusOutside},
	}
	movements := []*models.Movement{
		{ID: 1, ResidentID: 1, Kind: models.KindExit, Timestamp: time.Date(2024, 5, 9, 23, 59, 59, 0, loc)},
		{ID: 2, ResidentID: 1, Kind: models.KindEnter, Timestamp: time.Date(2024, 5, 10, 0, 0, 0, 0, loc)},
		{ID: 3, ResidentID: 2, Kind: models.KindExit, Timestamp: time.Date(2024, 5, 10, 9, 0, 0, 0, loc)},
		{ID: 4, ResidentID: 3, Kind: models.KindExit, Timestamp: time.Date(2024, 5, 10, 17, 0, 0, 0, loc)},
		{ID: 5, ResidentID: 3, Kind: models.KindEnter, Timestamp: time.Date(2024, 5, 11, 0, 0, 0, 0, loc)},
	}

	got := Snapshot(residents, movements, now, loc)

	assert.Equal(t, models.DashboardStats{
		Total:         3,
		Inside:        1,
		Outside:       2,
		LeftToday:     2,
		ReturnedToday: 1,
		AsOf:          now,
	}, got)
}

func TestSnapshot_Empty(t *testing.T) {
	now := time.Now()
	got := Snapshot(nil, nil, now, nil)
	assert.Equal(t, models.DashboardStats{AsOf: now}, got)
}
