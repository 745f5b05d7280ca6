package commands

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/kanban/pkg/board"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *board.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := board.NewClient(&redis.Options{Addr: mr.Addr()}, "test")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestSeedBoard(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	boardID, err := seedBoard(ctx, client, "", 2)
	require.NoError(t, err)

	data, err := client.FetchBoardData(ctx, boardID)
	require.NoError(t, err)
	require.NotNil(t, data.Board.Name)
	assert.True(t, strings.HasPrefix(*data.Board.Name, "Board_"))
	assert.Len(t, *data.Board.Name, len("Board_")+4)

	require.Len(t, data.Columns, len(seedColumns))
	columns := slices.Clone(data.Columns)
	slices.SortFunc(columns, func(a, b board.ColumnRecord) int { return *a.Position - *b.Position })
	for j, col := range columns {
		assert.Equal(t, (j+1)*10, *col.Position)
		assert.Equal(t, seedColumns[j], *col.Header)
		assert.Equal(t, seedColumns[j], *col.Status)
	}

	assert.Len(t, data.Cards, 2*len(seedColumns))
	perColumn := map[string][]int{}
	for _, c := range data.Cards {
		perColumn[*c.ColumnID] = append(perColumn[*c.ColumnID], *c.Position)
	}
	for _, positions := range perColumn {
		slices.Sort(positions)
		assert.Equal(t, []int{1, 2}, positions)
	}
}

func TestSeedBoard_Named(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	boardID, err := seedBoard(ctx, client, "Sprint 12", 0)
	require.NoError(t, err)

	data, err := client.FetchBoardData(ctx, boardID)
	require.NoError(t, err)
	assert.Equal(t, "Sprint 12", *data.Board.Name)
	assert.Empty(t, data.Cards)
}
