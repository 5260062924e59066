package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostelgate/internal/movement/models"
	id "hostelgate/pkg/domain"
)

var base = time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

func mv(movementID int64, resident int64, kind models.Kind, ts time.Time) *models.Movement {
	return &models.Movement{
		ID:         id.MovementID(movementID),
		ResidentID: id.ResidentID(resident),
		Kind:       kind,
		Timestamp:  ts,
		Status:     kind.DefaultStatus(),
	}
}

func TestLogs_Empty(t *testing.T) {
	assert.Empty(t, Logs(nil, nil))
}

func TestLogs_EnterThenExitPairs(t *testing.T) {
	logs := Logs([]*models.Movement{
		mv(1, 7, models.KindEnter, at(0)),
		mv(2, 7, models.KindExit, at(30)),
	}, nil)

	require.Len(t, logs, 1)
	assert.Equal(t, at(0), *logs[0].EntryTime)
	assert.Equal(t, at(30), *logs[0].ExitTime)
	assert.Equal(t, "Entered", logs[0].EntryStatus)
	assert.Equal(t, "Exited", logs[0].ExitStatus)
	assert.Equal(t, id.MovementID(1), *logs[0].EntryMovementID)
	assert.Equal(t, id.MovementID(2), *logs[0].ExitMovementID)
}

func TestLogs_OrphanExit(t *testing.T) {
	logs := Logs([]*models.Movement{mv(1, 7, models.KindExit, at(0))}, nil)

	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].EntryTime)
	assert.Equal(t, at(0), *logs[0].ExitTime)
	assert.Equal(t, models.PendingStatus, logs[0].EntryStatus)
	assert.Equal(t, "Exited", logs[0].ExitStatus)
}

func TestLogs_RepeatedEnterFlushesOpenEntry(t *testing.T) {
	logs := Logs([]*models.Movement{
		mv(1, 7, models.KindEnter, at(0)),
		mv(2, 7, models.KindEnter, at(10)),
	}, nil)

	require.Len(t, logs, 2)
	for _, l := range logs {
		assert.Nil(t, l.ExitTime)
		assert.Equal(t, models.PendingStatus, l.ExitStatus)
	}
	// newest first
	assert.Equal(t, at(10), *logs[0].EntryTime)
	assert.Equal(t, at(0), *logs[1].EntryTime)
}

// Exit recorded before any entry, then an entry: the exit stands alone and
// the entry stays open.
func TestLogs_ExitThenEnterYieldsTwoEntries(t *testing.T) {
	mv1 := mv(1, 7, models.KindExit, at(0))
	mv2 := mv(2, 7, models.KindEnter, at(45))

	logs := Logs([]*models.Movement{mv1, mv2}, nil)

	require.Len(t, logs, 2)
	open, orphan := logs[0], logs[1]

	assert.Equal(t, mv2.Timestamp, *open.EntryTime)
	assert.Nil(t, open.ExitTime)
	assert.Equal(t, models.PendingStatus, open.ExitStatus)
	assert.Equal(t, mv2.Status, open.EntryStatus)

	assert.Nil(t, orphan.EntryTime)
	assert.Equal(t, mv1.Timestamp, *orphan.ExitTime)
	assert.Equal(t, models.PendingStatus, orphan.EntryStatus)
	assert.Equal(t, mv1.Status, orphan.ExitStatus)
}

func TestLogs_RemarksOverwrittenOnlyWhenExitHasSome(t *testing.T) {
	enter := mv(1, 7, models.KindEnter, at(0))
	enter.Remarks = "late return"
	exitNoRemarks := mv(2, 7, models.KindExit, at(5))

	logs := Logs([]*models.Movement{enter, exitNoRemarks}, nil)
	require.Len(t, logs, 1)
	assert.Equal(t, "late return", logs[0].Remarks)

	exitWithRemarks := mv(2, 7, models.KindExit, at(5))
	exitWithRemarks.Remarks = "gone home"
	logs = Logs([]*models.Movement{enter, exitWithRemarks}, nil)
	require.Len(t, logs, 1)
	assert.Equal(t, "gone home", logs[0].Remarks)
}

func TestLogs_Scope(t *testing.T) {
	movements := []*models.Movement{
		mv(1, 7, models.KindExit, at(0)),
		mv(2, 8, models.KindExit, at(1)),
		mv(3, 7, models.KindEnter, at(2)),
	}
	scope := id.ResidentID(8)

	logs := Logs(movements, &scope)

	require.Len(t, logs, 1)
	assert.Equal(t, id.ResidentID(8), logs[0].ResidentID)
}

func TestLogs_InterleavedResidentsSortedNewestFirst(t *testing.T) {
	logs := Logs([]*models.Movement{
		mv(1, 1, models.KindExit, at(0)),
		mv(2, 2, models.KindExit, at(5)),
		mv(3, 1, models.KindEnter, at(10)),
		mv(4, 1, models.KindExit, at(20)),
		mv(5, 2, models.KindEnter, at(15)),
	}, nil)

	require.Len(t, logs, 4)
	var keys []time.Time
	for _, l := range logs {
		if l.ExitTime != nil {
			keys = append(keys, *l.ExitTime)
		} else {
			keys = append(keys, *l.EntryTime)
		}
	}
	for i := 1; i < len(keys); i++ {
		assert.False(t, keys[i].After(keys[i-1]), "entry %d out of order", i)
	}
	// resident 1's second cycle pairs ENTER@10 with EXIT@20
	assert.Equal(t, at(20), *logs[0].ExitTime)
	assert.Equal(t, at(10), *logs[0].EntryTime)
}

func TestLogs_SortIgnoresTimeZone(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	logs := Logs([]*models.Movement{
		mv(1, 1, models.KindExit, at(0).In(ist)),
		mv(2, 2, models.KindExit, at(1)),
	}, nil)

	require.Len(t, logs, 2)
	assert.Equal(t, id.ResidentID(2), logs[0].ResidentID)
}

func TestLogs_IsStateless(t *testing.T) {
	movements := []*models.Movement{mv(1, 7, models.KindEnter, at(0))}
	first := Logs(movements, nil)
	second := Logs(movements, nil)
	assert.Equal(t, first, second)
}
