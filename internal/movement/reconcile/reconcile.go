// Package reconcile rebuilds paired entry/exit rows from the movement ledger.
package reconcile

import (
	"slices"
	"strings"
	"time"

	"hostelgate/internal/movement/models"
	id "hostelgate/pkg/domain"
)

// sortLayout is fixed width so that string order equals time order.
const sortLayout = "2006-01-02T15:04:05.000000000Z"

// Logs pairs movements (ascending by id) into log entries, newest first.
// When scope is set only that resident's movements are considered.
//
// An ENTER opens an entry; a second ENTER before any EXIT emits the first one
// unchanged and opens another. An EXIT closes the open entry, or becomes an
// entry of its own with no entry half when none is open. Entries still open
// at the end are emitted with their exit pending.
func Logs(movements []*models.Movement, scope *id.ResidentID) []models.LogEntry {
	pending := make(map[id.ResidentID]*models.LogEntry)
	// open tracks insertion order so flushing stays deterministic
	var open []id.ResidentID
	var out []models.LogEntry

	for _, m := range movements {
		if scope != nil && m.ResidentID != *scope {
			continue
		}
		switch m.Kind {
		case models.KindEnter:
			if prev, ok := pending[m.ResidentID]; ok {
				out = append(out, *prev)
				open = remove(open, m.ResidentID)
			}
			pending[m.ResidentID] = openEntry(m)
			open = append(open, m.ResidentID)

		case models.KindExit:
			entry, ok := pending[m.ResidentID]
			if !ok {
				out = append(out, orphanExit(m))
				continue
			}
			closeEntry(entry, m)
			out = append(out, *entry)
			delete(pending, m.ResidentID)
			open = remove(open, m.ResidentID)
		}
	}

	for _, rid := range open {
		out = append(out, *pending[rid])
	}

	slices.SortStableFunc(out, func(a, b models.LogEntry) int {
		return strings.Compare(sortKey(b), sortKey(a))
	})
	return out
}

func openEntry(m *models.Movement) *models.LogEntry {
	movementID := m.ID
	ts := m.Timestamp
	return &models.LogEntry{
		ResidentID:      m.ResidentID,
		EntryMovementID: &movementID,
		EntryTime:       &ts,
		EntryStatus:     m.Status,
		ExitStatus:      models.PendingStatus,
		Remarks:         m.Remarks,
	}
}

func closeEntry(entry *models.LogEntry, m *models.Movement) {
	movementID := m.ID
	ts := m.Timestamp
	entry.ExitMovementID = &movementID
	entry.ExitTime = &ts
	entry.ExitStatus = m.Status
	if m.Remarks != "" {
		entry.Remarks = m.Remarks
	}
}

func orphanExit(m *models.Movement) models.LogEntry {
	movementID := m.ID
	ts := m.Timestamp
	return models.LogEntry{
		ResidentID:     m.ResidentID,
		ExitMovementID: &movementID,
		ExitTime:       &ts,
		EntryStatus:    models.PendingStatus,
		ExitStatus:     m.Status,
		Remarks:        m.Remarks,
	}
}

// sortKey orders by exit time, falling back to entry time. Entries with
// neither sort last.
func sortKey(e models.LogEntry) string {
	switch {
	case e.ExitTime != nil:
		return canonical(*e.ExitTime)
	case e.EntryTime != nil:
		return canonical(*e.EntryTime)
	default:
		return ""
	}
}

func canonical(t time.Time) string {
	return t.UTC().Format(sortLayout)
}

func remove(ids []id.ResidentID, target id.ResidentID) []id.ResidentID {
	if i := slices.Index(ids, target); i >= 0 {
		return slices.Delete(ids, i, i+1)
	}
	return ids
}
