// Package reducer implements the pure state-transition function of the board store.
//
// Reduce never modifies its inputs. Every result remembers, one level deep, the
// state it was derived from so that SetError{Revert: true} can roll back the
// most recent dispatch.
package reducer

import (
	"slices"

	"github.com/dyluth/kanban/internal/ordering"
	"github.com/dyluth/kanban/pkg/board"
)

// Reduce returns the state that results from applying action to state.
// A nil or unrecognised action returns state unchanged.
//
// Actions naming an unknown board are no-ops for updates, deletes and moves.
// SetLoading, CreateCard and the upsert actions create an empty board first.
func Reduce(state board.RootState, action Action) board.RootState {
	if action == nil {
		return state
	}

	if a, ok := action.(SetError); ok {
		return reduceError(state, a)
	}

	next, ok := reduce(state, action)
	if !ok {
		return state
	}
	return next.WithPrevious(state)
}

func reduce(state board.RootState, action Action) (board.RootState, bool) {
	switch a := action.(type) {
	case InitializeBoard:
		bs := board.BoardState{
			BoardID:   a.BoardID,
			Board:     a.Board,
			Columns:   nonNil(a.Columns),
			Cards:     nonNil(a.Cards),
			IsLoading: false,
		}
		return withBoard(state, a.BoardID, bs), true

	case SetLoading:
		bs := boardOrDefault(state, a.BoardID)
		bs.IsLoading = a.IsLoading
		return withBoard(state, a.BoardID, bs), true

	case CreateCard:
		if a.Card.ID == "" {
			return unchanged(state), true
		}
		bs := boardOrDefault(state, a.BoardID)
		bs.Cards = appendCopy(bs.Cards, a.Card)
		return withBoard(state, a.BoardID, bs), true

	case UpdateCard:
		bs, ok := state.Boards[a.BoardID]
		if !ok {
			return unchanged(state), true
		}
		bs.Cards = updateCard(bs.Cards, a.Patch)
		return withBoard(state, a.BoardID, bs), true

	case UpdateCards:
		bs, ok := state.Boards[a.BoardID]
		if !ok {
			return unchanged(state), true
		}
		bs.Cards = mergeCards(bs.Cards, a.Cards)
		return withBoard(state, a.BoardID, bs), true

	case DeleteCard:
		bs, ok := state.Boards[a.BoardID]
		if !ok {
			return unchanged(state), true
		}
		bs.Cards = slices.DeleteFunc(slices.Clone(bs.Cards), func(c board.Card) bool { return c.ID == a.CardID })
		return withBoard(state, a.BoardID, bs), true

	case MoveCard:
		bs, ok := state.Boards[a.BoardID]
		if !ok {
			return unchanged(state), true
		}
		cards, moved := ordering.Apply(bs.Cards, a.Move)
		if !moved {
			return unchanged(state), true
		}
		bs.Cards = cards
		return withBoard(state, a.BoardID, bs), true

	case UpsertCard:
		if a.Card.ID == "" {
			return unchanged(state), true
		}
		bs := boardOrDefault(state, a.BoardID)
		bs.Cards = upsertCard(bs.Cards, a.Card)
		return withBoard(state, a.BoardID, bs), true

	case UpsertCards:
		bs := boardOrDefault(state, a.BoardID)
		bs.Cards = mergeCards(bs.Cards, a.Cards)
		return withBoard(state, a.BoardID, bs), true

	case UpdateColumn:
		bs, ok := state.Boards[a.BoardID]
		if !ok {
			return unchanged(state), true
		}
		bs.Columns = updateColumn(bs.Columns, a.Patch)
		return withBoard(state, a.BoardID, bs), true

	case DeleteColumn:
		bs, ok := state.Boards[a.BoardID]
		if !ok {
			return unchanged(state), true
		}
		bs.Columns = slices.DeleteFunc(slices.Clone(bs.Columns), func(c board.Column) bool { return c.ID == a.ColumnID })
		bs.Cards = slices.DeleteFunc(slices.Clone(bs.Cards), func(c board.Card) bool { return c.ColumnID == a.ColumnID })
		return withBoard(state, a.BoardID, bs), true

	case UpsertColumn:
		if a.Column.ID == "" {
			return unchanged(state), true
		}
		bs := boardOrDefault(state, a.BoardID)
		bs.Columns = upsertColumn(bs.Columns, a.Column)
		return withBoard(state, a.BoardID, bs), true
	}

	return state, false
}

// reduceError sets the error message. On revert the previous state's content
// is restored and becomes the new rollback source, so repeating the revert
// only changes the message.
func reduceError(state board.RootState, a SetError) board.RootState {
	if !a.Revert {
		next := unchanged(state)
		next.Error = a.Message
		return next.WithPrevious(state)
	}

	base, ok := state.Previous()
	if !ok {
		next := unchanged(state)
		next.Error = a.Message
		return next.WithPrevious(state)
	}

	next := unchanged(base)
	next.Error = a.Message
	return next.WithPrevious(base)
}

func updateCard(cards []board.Card, patch board.CardPatch) []board.Card {
	out := slices.Clone(cards)
	for i, c := range out {
		if c.ID != patch.CardID {
			continue
		}
		if patch.LastModifiedDate.After(c.LastModifiedDate) {
			out[i] = patch.Apply(c)
		}
	}
	return out
}

// mergeCards merges each incoming card into a stored card with the same id when
// the incoming one is newer, and appends incoming cards with no stored match.
// Cards without an id are ignored and only the first incoming card per id counts.
func mergeCards(cards, incoming []board.Card) []board.Card {
	byID := make(map[string]board.Card, len(incoming))
	var order []string
	for _, c := range incoming {
		if c.ID == "" {
			continue
		}
		if _, dup := byID[c.ID]; dup {
			continue
		}
		byID[c.ID] = c
		order = append(order, c.ID)
	}

	out := make([]board.Card, 0, len(cards)+len(order))
	known := make(map[string]bool, len(cards))
	for _, c := range cards {
		known[c.ID] = true
		if in, ok := byID[c.ID]; ok && in.NewerThan(c) {
			c = c.Merge(in)
		}
		out = append(out, c)
	}
	for _, id := range order {
		if !known[id] {
			out = append(out, byID[id])
		}
	}
	return out
}

func upsertCard(cards []board.Card, incoming board.Card) []board.Card {
	i := slices.IndexFunc(cards, func(c board.Card) bool { return c.ID == incoming.ID })
	if i < 0 {
		return appendCopy(cards, incoming)
	}
	out := slices.Clone(cards)
	if incoming.NewerThan(cards[i]) {
		out[i] = incoming
	}
	return out
}

func updateColumn(columns []board.Column, patch board.ColumnPatch) []board.Column {
	out := slices.Clone(columns)
	for i, c := range out {
		if c.ID != patch.ColumnID {
			continue
		}
		if patch.LastModifiedDate.After(c.LastModifiedDate) {
			out[i] = patch.Apply(c)
		}
	}
	return out
}

func upsertColumn(columns []board.Column, incoming board.Column) []board.Column {
	i := slices.IndexFunc(columns, func(c board.Column) bool { return c.ID == incoming.ID })
	if i < 0 {
		return appendCopy(columns, incoming)
	}
	out := slices.Clone(columns)
	if incoming.NewerThan(columns[i]) {
		out[i] = incoming
	}
	return out
}

// withBoard returns a copy of state whose boards map holds bs.
func withBoard(state board.RootState, boardID string, bs board.BoardState) board.RootState {
	next := unchanged(state)
	next.Boards[boardID] = bs
	return next
}

// unchanged returns a copy of state with its own boards map and no history.
func unchanged(state board.RootState) board.RootState {
	boards := make(map[string]board.BoardState, len(state.Boards)+1)
	for id, bs := range state.Boards {
		boards[id] = bs
	}
	return board.RootState{Boards: boards, Error: state.Error}
}

func boardOrDefault(state board.RootState, boardID string) board.BoardState {
	if bs, ok := state.Boards[boardID]; ok {
		return bs
	}
	return board.BoardState{
		BoardID: boardID,
		Board:   board.Board{ID: boardID},
		Columns: []board.Column{},
		Cards:   []board.Card{},
	}
}

func appendCopy[T any](s []T, v T) []T {
	out := make([]T, len(s), len(s)+1)
	copy(out, s)
	return append(out, v)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return slices.Clone(s)
}
