package command

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/dashflow/internal/model"
)

func allCommands() []Command {
	return []Command{
		Initialize{}, Save{}, SaveAs{}, Rename{}, Reset{}, Delete{},
		AddLayoutSection{}, RemoveLayoutSection{}, ChangeInsightProperties{},
		ChangeWidgetHeader{}, ChangeFilterContext{},
	}
}

func TestTypes_CoverAllCommands(t *testing.T) {
	seen := make(map[Type]bool)
	for _, typ := range Types() {
		assert.False(t, seen[typ], "duplicate type %s", typ)
		seen[typ] = true
	}
	for _, cmd := range allCommands() {
		assert.True(t, seen[cmd.CommandType()], "%T missing from Types", cmd)
	}
	assert.Len(t, Types(), len(allCommands()))
}

func TestCorrelate_ReturnsCopy(t *testing.T) {
	orig := ChangeWidgetHeader{Ref: model.IdentifierRef("w"), Title: "x"}

	got := Correlate(orig, "corr-1")

	assert.Equal(t, "corr-1", got.Metadata().CorrelationID)
	assert.Equal(t, "", orig.CorrelationID)
	typed, ok := got.(ChangeWidgetHeader)
	assert.True(t, ok)
	assert.Equal(t, "x", typed.Title)
}

func TestStamp_KeepsCorrelation(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	cmd := Correlate(Save{}, "c")

	got := Stamp(cmd, "id-1", at)

	assert.Equal(t, Meta{ID: "id-1", CorrelationID: "c", IssuedAt: at}, got.Metadata())
	assert.Equal(t, "", cmd.Metadata().ID)
}
