//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/kanban/internal/mapper"
	"github.com/dyluth/kanban/internal/queue"
	"github.com/dyluth/kanban/internal/service"
	"github.com/dyluth/kanban/internal/store"
	"github.com/dyluth/kanban/internal/subscriber"
	"github.com/dyluth/kanban/internal/testutil"
	"github.com/dyluth/kanban/pkg/board"
)

// TestMoveRoundTrip moves a card against a real Redis and checks that a second
// session sees the move through its subscription.
func TestMoveRoundTrip(t *testing.T) {
	client := testutil.NewBoardClient(t, "integration")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := client.SaveBoard(ctx, board.BoardRecord{ID: "b1", Name: board.StringPtr("Sprint")})
	require.NoError(t, err)
	for i, id := range []string{"todo", "done"} {
		pos := i + 1
		_, err := client.SaveColumn(ctx, board.ColumnRecord{ID: id, BoardID: board.StringPtr("b1"), Position: &pos, Status: board.StringPtr(id)})
		require.NoError(t, err)
	}
	for i, id := range []string{"A", "B"} {
		pos := i + 1
		_, err := client.SaveCard(ctx, board.CardRecord{ID: id, ColumnID: board.StringPtr("todo"), Position: &pos})
		require.NoError(t, err)
	}

	newStore := func() *store.Store {
		svc := service.New(client, mapper.New(""), queue.New(nil), nil)
		st := store.New(svc, nil)
		require.NoError(t, st.Initialize(ctx, "b1"))
		return st
	}
	mover, observer := newStore(), newStore()

	sub := subscriber.New("b1", observer, subscriber.FromClient(client), nil, subscriber.Config{})
	go sub.Run(ctx)
	defer sub.Close()
	// Let the subscription settle before publishing.
	time.Sleep(500 * time.Millisecond)

	require.NoError(t, mover.MoveCard(ctx, "b1", board.Drop{
		CardID:             "A",
		SourceColumnID:     "todo",
		TargetColumnID:     "done",
		TargetColumnStatus: board.StringPtr("done"),
	}))

	data, err := client.FetchBoardData(ctx, "b1")
	require.NoError(t, err)
	for _, c := range data.Cards {
		if c.ID == "A" {
			assert.Equal(t, "done", *c.ColumnID)
			assert.Equal(t, 1, *c.Position)
		}
	}

	require.Eventually(t, func() bool {
		bs, _ := observer.Board("b1")
		a, ok := bs.Card("A")
		return ok && a.ColumnID == "done"
	}, 5*time.Second, 50*time.Millisecond)
}
