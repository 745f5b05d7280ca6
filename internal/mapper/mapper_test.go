package mapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/kanban/pkg/board"
)

func TestFormatTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC)

	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"rfc3339 with millis", "2024-03-05T10:20:30.123Z", want},
		{"rfc3339 without fraction", "2024-03-05T10:20:30Z", want},
		{"platform layout", "2024-03-05T10:20:30.000+0000", want},
		{"offset is normalised to UTC", "2024-03-05T12:20:30.999+02:00", want},
		{"empty is absent", "", time.Time{}},
		{"garbage is absent", "yesterday", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatTimestamp(tt.in)
			assert.True(t, tt.want.Equal(got), "got %v", got)
			if !got.IsZero() {
				assert.Equal(t, "2024-03-05T10:20:30Z", got.Format(time.RFC3339Nano))
			}
		})
	}
}

func TestMapBoardData(t *testing.T) {
	m := New("")
	pos := 2

	snap := m.MapBoardData(&board.BoardData{
		Board: &board.BoardRecord{ID: "b1", LastModifiedDate: "2024-01-01T00:00:00.000Z"},
		Columns: []board.ColumnRecord{
			{ID: "c1", Name: board.StringPtr("Doing"), Position: &pos, BoardID: board.StringPtr("b1")},
			{ID: "c2"},
			{ID: "c3", Name: board.StringPtr("Done"), Header: board.StringPtr("Shipped")},
		},
		Cards: []board.CardRecord{{ID: "k1", ColumnID: board.StringPtr("c1")}},
	})

	assert.Equal(t, "b1", snap.Board.ID)
	assert.Equal(t, DefaultBoardName, *snap.Board.Name)

	require.Len(t, snap.Columns, 3)
	assert.Equal(t, "Doing", *snap.Columns[0].Header, "header falls back to name")
	assert.Equal(t, 2, snap.Columns[0].Position)
	assert.Equal(t, "b1", snap.Columns[0].BoardID)
	assert.Equal(t, "/lightning/r/Column/c1/view", snap.Columns[0].URL)
	assert.Equal(t, DefaultColumnName, *snap.Columns[1].Name)
	assert.Equal(t, DefaultColumnName, *snap.Columns[1].Header)
	assert.Equal(t, board.NoPosition, snap.Columns[1].Position)
	assert.Nil(t, snap.Columns[1].Status)
	assert.Equal(t, "Shipped", *snap.Columns[2].Header)

	require.Len(t, snap.Cards, 1)
	assert.Equal(t, "c1", snap.Cards[0].ColumnID)
}

func TestMapBoardDataWithoutBoard(t *testing.T) {
	snap := New("").MapBoardData(&board.BoardData{})
	assert.Empty(t, snap.Board.ID)
	assert.Equal(t, DefaultBoardName, *snap.Board.Name)
	assert.NotNil(t, snap.Columns)
	assert.NotNil(t, snap.Cards)
}

func TestMapCard(t *testing.T) {
	m := New("https://crm.example.com/r/")
	points := 5.0

	t.Run("full record", func(t *testing.T) {
		c := m.MapCard(board.CardRecord{
			ID:          "k1",
			Name:        board.StringPtr("Fix login"),
			ColumnID:    board.StringPtr("c1"),
			AssigneeID:  board.StringPtr("u1"),
			Assignee:    &board.UserRef{Name: board.StringPtr("Ada"), SmallPhotoURL: board.StringPtr("/p.png")},
			StoryPoints: &points,
			Priority:    board.StringPtr("High"),
		})
		assert.Equal(t, "Fix login", *c.Name)
		assert.Equal(t, "Ada", *c.AssigneeName)
		assert.Equal(t, "/p.png", *c.AssigneePhoto)
		assert.Equal(t, 5.0, *c.StoryPoints)
		assert.Equal(t, "https://crm.example.com/r/Card/k1/view", c.URL)
	})

	t.Run("absent fields stay absent", func(t *testing.T) {
		c := m.MapCard(board.CardRecord{ID: "k2"})
		assert.Equal(t, DefaultCardName, *c.Name)
		assert.Nil(t, c.Subject)
		assert.Nil(t, c.Status)
		assert.Nil(t, c.AssigneeName)
		assert.Nil(t, c.StoryPoints)
		assert.Equal(t, board.NoPosition, c.Position)
		assert.True(t, c.LastModifiedDate.IsZero())
	})
}

func TestCardFromEvent(t *testing.T) {
	m := New("")
	pos := 3
	c := m.CardFromEvent(&board.CardEvent{
		EventType:        board.EventCardUpdate,
		CardID:           board.StringPtr("k1"),
		ColumnID:         board.StringPtr("c2"),
		Position:         &pos,
		LastModifiedDate: board.StringPtr("2024-03-05T10:20:30.250Z"),
	})

	assert.Equal(t, "k1", c.ID)
	assert.Equal(t, "c2", c.ColumnID)
	assert.Equal(t, 3, c.Position)
	assert.Nil(t, c.Name, "event names are not defaulted")
	assert.Equal(t, 250*time.Millisecond, time.Duration(c.LastModifiedDate.Nanosecond()))
	assert.Equal(t, "/lightning/r/Card/k1/view", c.URL)

	empty := m.CardFromEvent(&board.CardEvent{EventType: board.EventCardDelete})
	assert.Empty(t, empty.ID)
	assert.Empty(t, empty.URL)
}

func TestColumnFromEvent(t *testing.T) {
	col := New("").ColumnFromEvent(&board.ColumnEvent{
		EventType: board.EventColumnCreate,
		ColumnID:  board.StringPtr("c9"),
		BoardID:   board.StringPtr("b1"),
		Name:      board.StringPtr("QA"),
	})
	assert.Equal(t, "c9", col.ID)
	assert.Equal(t, "b1", col.BoardID)
	assert.Equal(t, "QA", *col.Name)
	assert.Nil(t, col.Header)
	assert.Equal(t, "/lightning/r/Column/c9/view", col.URL)
}
