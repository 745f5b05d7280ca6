package watch

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/kanban/internal/reducer"
	"github.com/dyluth/kanban/internal/store"
	"github.com/dyluth/kanban/pkg/board"
)

func sampleBoard() board.BoardState {
	points := 3.0
	return board.BoardState{
		BoardID: "b1",
		Board:   board.Board{ID: "b1", Name: board.StringPtr("Sprint 12")},
		Columns: []board.Column{
			{ID: "done", BoardID: "b1", Name: board.StringPtr("Done"), Position: 2},
			{ID: "todo", BoardID: "b1", Name: board.StringPtr("To Do"), Header: board.StringPtr("Backlog"), Color: board.StringPtr("#ff8800"), Position: 1},
		},
		Cards: []board.Card{
			{ID: "B", ColumnID: "todo", Name: board.StringPtr("Second"), Position: 2},
			{ID: "A", ColumnID: "todo", Name: board.StringPtr("First"), Priority: board.StringPtr("High"), StoryPoints: &points, AssigneeName: board.StringPtr("sam"), Position: 1},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("default")
	require.NoError(t, err)
	assert.Equal(t, OutputFormatDefault, f)

	f, err = ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, OutputFormatJSON, f)

	_, err = ParseFormat("yaml")
	assert.Error(t, err)
}

func TestRenderDefault(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleBoard(), OutputFormatDefault))
	out := buf.String()

	assert.Contains(t, out, "Sprint 12")
	assert.Contains(t, out, "Backlog (2)")
	assert.Contains(t, out, "Done (0)")
	assert.Contains(t, out, "1. First")
	assert.Contains(t, out, "High 3pt @sam")
	assert.Contains(t, out, "2. Second")
	assert.Contains(t, out, "empty")

	assert.Less(t, strings.Index(out, "Backlog"), strings.Index(out, "Done"), "columns ordered by position")
	assert.Less(t, strings.Index(out, "First"), strings.Index(out, "Second"), "cards ordered by position")
}

func TestRenderDefaultPlaceholders(t *testing.T) {
	var buf bytes.Buffer
	bs := board.BoardState{BoardID: "b1", IsLoading: true}
	require.NoError(t, Render(&buf, bs, OutputFormatDefault))
	assert.Contains(t, buf.String(), "Unnamed Board")
	assert.Contains(t, buf.String(), "(loading)")
	assert.Contains(t, buf.String(), "no columns")
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleBoard(), OutputFormatJSON))
	require.True(t, strings.HasSuffix(buf.String(), "\n"))

	var decoded board.BoardState
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "b1", decoded.BoardID)
	assert.Len(t, decoded.Cards, 2)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Split(strings.TrimSpace(s.buf.String()), "\n")
}

func TestStream(t *testing.T) {
	st := store.New(nil, nil)
	bs := sampleBoard()
	st.Dispatch(reducer.InitializeBoard{BoardID: "b1", Board: bs.Board, Columns: bs.Columns, Cards: bs.Cards})

	out := &syncBuffer{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Stream(ctx, st, "b1", OutputFormatJSON, out) }()

	require.Eventually(t, func() bool { return len(out.lines()) == 1 && out.lines()[0] != "" }, 2*time.Second, 5*time.Millisecond)

	// Another board changing does not produce a frame.
	st.Dispatch(reducer.SetLoading{BoardID: "other", IsLoading: true})
	st.Dispatch(reducer.UpsertCard{BoardID: "b1", Card: board.Card{ID: "C", ColumnID: "done", Position: 1}})
	require.Eventually(t, func() bool { return len(out.lines()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Contains(t, out.lines()[1], `"cardId":"C"`)

	cancel()
	require.NoError(t, <-done)
}
