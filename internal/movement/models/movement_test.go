package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	residentModel "hostelgate/internal/resident/models"
	dErrors "hostelgate/pkg/domain-errors"
)

func TestParseKind(t *testing.T) {
	for raw, want := range map[string]Kind{
		"ENTER":   KindEnter,
		"entry":   KindEnter,
		" Entry ": KindEnter,
		"enter":   KindEnter,
		"EXIT":    KindExit,
		"exit":    KindExit,
	} {
		got, err := ParseKind(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"", "LEAVE", "in", "out"} {
		_, err := ParseKind(raw)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidKind), raw)
	}
}

func TestNextStatus(t *testing.T) {
	tests := []struct {
		name     string
		current  residentModel.Status
		kind     Kind
		want     residentModel.Status
		wantCode dErrors.Code
	}{
		{"exit from inside", residentModel.StatusInFacility, KindExit, residentModel.StatusOutside, ""},
		{"enter from outside", residentModel.StatusOutside, KindEnter, residentModel.StatusInFacility, ""},
		{"exit while outside", residentModel.StatusOutside, KindExit, "", dErrors.CodeRedundantMovement},
		{"enter while inside", residentModel.StatusInFacility, KindEnter, "", dErrors.CodeRedundantMovement},
		{"unknown kind", residentModel.StatusInFacility, Kind("SIDEWAYS"), "", dErrors.CodeInvalidKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextStatus(tt.current, tt.kind)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, tt.wantCode))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFoldStatus(t *testing.T) {
	assert.Equal(t, residentModel.StatusInFacility, FoldStatus(nil))
	assert.Equal(t, residentModel.StatusOutside, FoldStatus([]*Movement{{Kind: KindExit}}))
	assert.Equal(t, residentModel.StatusInFacility, FoldStatus([]*Movement{{Kind: KindExit}, {Kind: KindEnter}}))
}

func TestKind_DefaultStatus(t *testing.T) {
	assert.Equal(t, "Entered", KindEnter.DefaultStatus())
	assert.Equal(t, "Exited", KindExit.DefaultStatus())
}
