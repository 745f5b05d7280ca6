package commands

import (
	"bytes"
	"context"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/kanban/pkg/board"
)

func TestWatchCommand_OnceJSON(t *testing.T) {
	mr, client := newTestClient(t)
	boardID, err := seedBoard(context.Background(), client, "Watched", 1)
	require.NoError(t, err)

	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	defer rootCmd.SetOut(nil)

	require.NoError(t, runCLI(t, mr.Addr(), "watch", "--board", boardID, "--once", "--output", "json"))

	var bs board.BoardState
	require.NoError(t, sonic.Unmarshal(out.Bytes(), &bs))
	assert.Equal(t, boardID, bs.BoardID)
	assert.Equal(t, "Watched", *bs.Board.Name)
	assert.Len(t, bs.Columns, len(seedColumns))
	assert.Len(t, bs.Cards, len(seedColumns))
	assert.False(t, bs.IsLoading)
}

func TestWatchCommand_InvalidFormat(t *testing.T) {
	err := runCLI(t, "127.0.0.1:1", "watch", "--board", "b1", "--output", "yaml")
	require.Error(t, err)
	assert.Equal(t, "invalid output format", err.Error())
}

func TestWatchCommand_TypeFilter(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()
	boardID, err := seedBoard(ctx, client, "Filtered", 0)
	require.NoError(t, err)

	data, err := client.FetchBoardData(ctx, boardID)
	require.NoError(t, err)
	columnID := data.Columns[0].ID
	for i, cardType := range []string{"Bug", "Story", "Bug"} {
		pos := i + 1
		_, err := client.SaveCard(ctx, board.CardRecord{ColumnID: &columnID, Position: &pos, CardType: board.StringPtr(cardType)})
		require.NoError(t, err)
	}

	out := new(bytes.Buffer)
	rootCmd.SetOut(out)
	defer rootCmd.SetOut(nil)

	require.NoError(t, runCLI(t, mr.Addr(), "watch", "--board", boardID, "--once", "--output", "json", "--type", "Bug"))

	var bs board.BoardState
	require.NoError(t, sonic.Unmarshal(out.Bytes(), &bs))
	require.Len(t, bs.Cards, 2)
	for _, c := range bs.Cards {
		assert.Equal(t, "Bug", *c.CardType)
	}
}

func TestWatchCommand_InvalidFilters(t *testing.T) {
	err := runCLI(t, "127.0.0.1:1", "watch", "--board", "b1", "--since", "soon")
	require.Error(t, err)
	assert.Equal(t, "invalid time filter", err.Error())

	err = runCLI(t, "127.0.0.1:1", "watch", "--board", "b1", "--type", "[")
	require.Error(t, err)
	assert.Equal(t, "invalid --type pattern", err.Error())
}
