package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dyluth/kanban/pkg/board"
)

func TestCriteria_Matches(t *testing.T) {
	base := time.Date(2025, 10, 29, 12, 0, 0, 0, time.UTC)
	card := board.Card{
		ID:               "A",
		CardType:         board.StringPtr("Bug"),
		AssigneeID:       board.StringPtr("005A"),
		AssigneeName:     board.StringPtr("Sam"),
		LastModifiedDate: base,
	}

	tests := []struct {
		name     string
		criteria Criteria
		want     bool
	}{
		{"no filters", Criteria{}, true},
		{"since before", Criteria{Since: base.Add(-time.Hour)}, true},
		{"since after", Criteria{Since: base.Add(time.Hour)}, false},
		{"until after", Criteria{Until: base.Add(time.Hour)}, true},
		{"until before", Criteria{Until: base.Add(-time.Hour)}, false},
		{"type exact", Criteria{TypeGlob: "Bug"}, true},
		{"type glob", Criteria{TypeGlob: "B*"}, true},
		{"type mismatch", Criteria{TypeGlob: "Story"}, false},
		{"bad glob", Criteria{TypeGlob: "["}, false},
		{"assignee id", Criteria{Assignee: "005A"}, true},
		{"assignee name", Criteria{Assignee: "Sam"}, true},
		{"assignee mismatch", Criteria{Assignee: "Alex"}, false},
		{"all match", Criteria{Since: base, Until: base, TypeGlob: "*", Assignee: "Sam"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.criteria.Matches(card))
		})
	}

	untyped := board.Card{ID: "B"}
	assert.False(t, (&Criteria{TypeGlob: "*"}).Matches(untyped))
	assert.False(t, (&Criteria{Assignee: "Sam"}).Matches(untyped))
}

func TestCriteria_Board(t *testing.T) {
	bs := board.BoardState{
		BoardID: "b1",
		Columns: []board.Column{{ID: "todo"}},
		Cards: []board.Card{
			{ID: "A", ColumnID: "todo", Position: 1, CardType: board.StringPtr("Bug")},
			{ID: "B", ColumnID: "todo", Position: 2, CardType: board.StringPtr("Story")},
		},
	}

	none := &Criteria{}
	assert.False(t, none.HasFilters())
	assert.Equal(t, bs, none.Board(bs))

	bugs := &Criteria{TypeGlob: "Bug"}
	assert.True(t, bugs.HasFilters())
	got := bugs.Board(bs)
	assert.Len(t, got.Columns, 1)
	if assert.Len(t, got.Cards, 1) {
		assert.Equal(t, "A", got.Cards[0].ID)
		assert.Equal(t, 1, got.Cards[0].Position)
	}
	assert.Len(t, bs.Cards, 2, "input is not modified")
}

func TestCriteria_Validate(t *testing.T) {
	assert.NoError(t, (&Criteria{}).Validate())
	assert.NoError(t, (&Criteria{TypeGlob: "Bug*"}).Validate())
	assert.Error(t, (&Criteria{TypeGlob: "["}).Validate())
}
