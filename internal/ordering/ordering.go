// Package ordering computes card positions after a drag-and-drop move.
//
// All functions are pure: input slices are never modified and every returned
// card is a fresh copy.
package ordering

import (
	"slices"

	"github.com/dyluth/kanban/pkg/board"
)

// Move describes one card move between (or within) columns.
type Move struct {
	CardID             string
	SourceColumnID     string
	TargetColumnID     string
	TargetCardID       string
	TargetColumnStatus *string
}

// FromDrop converts a validated drop gesture into a Move.
func FromDrop(d board.Drop) Move {
	return Move{
		CardID:             d.CardID,
		SourceColumnID:     d.SourceColumnID,
		TargetColumnID:     d.TargetColumnID,
		TargetCardID:       d.TargetCardID,
		TargetColumnStatus: d.TargetColumnStatus,
	}
}

// Apply moves a card and renumbers the affected columns.
//
// Placement relative to the target card:
//   - same column: a card moving down lands after the target, a card moving up lands before it
//   - other column: the card lands before the target, except that dropping on the last
//     card of a column with more than one card appends after it
//   - no target, or target not in the column: the card is appended
//
// The source and target columns are taken in position order, not slice order.
// The result holds the cards of untouched columns first (in their original order),
// then the renumbered source column, then the renumbered target column.
// It reports false, and returns cards unchanged, when the card is not present.
func Apply(cards []board.Card, m Move) ([]board.Card, bool) {
	idx := slices.IndexFunc(cards, func(c board.Card) bool { return c.ID == m.CardID })
	if idx < 0 {
		return cards, false
	}

	moved := cards[idx]
	previousPosition := moved.Position
	moved.ColumnID = m.TargetColumnID
	if m.TargetColumnStatus != nil {
		status := *m.TargetColumnStatus
		moved.Status = &status
	}

	sameColumn := m.SourceColumnID == m.TargetColumnID

	var others, source, dest []board.Card
	for _, c := range cards {
		if c.ID == m.CardID {
			continue
		}
		switch c.ColumnID {
		case m.TargetColumnID:
			dest = append(dest, c)
		case m.SourceColumnID:
			source = append(source, c)
		default:
			others = append(others, c)
		}
	}

	// Slice order may lag positions after a merged remote update.
	byPosition := func(a, b board.Card) int { return a.Position - b.Position }
	slices.SortStableFunc(source, byPosition)
	slices.SortStableFunc(dest, byPosition)

	at := len(dest)
	if m.TargetCardID != "" {
		if i := slices.IndexFunc(dest, func(c board.Card) bool { return c.ID == m.TargetCardID }); i >= 0 {
			at = insertionIndex(dest, i, sameColumn, previousPosition)
		}
	}
	dest = slices.Insert(dest, at, moved)

	result := make([]board.Card, 0, len(cards))
	result = append(result, others...)
	if !sameColumn {
		result = append(result, Renumber(source)...)
	}
	result = append(result, Renumber(dest)...)
	return result, true
}

func insertionIndex(dest []board.Card, target int, sameColumn bool, previousPosition int) int {
	if sameColumn {
		if previousPosition < dest[target].Position {
			return target + 1
		}
		return target
	}
	// The top card takes precedence over the last-card rule.
	if target == 0 {
		return target
	}
	if target == len(dest)-1 {
		return target + 1
	}
	return target
}

// Renumber returns copies of cards with positions 1..N in slice order.
func Renumber(cards []board.Card) []board.Card {
	out := make([]board.Card, len(cards))
	for i, c := range cards {
		c.Position = i + 1
		out[i] = c
	}
	return out
}

// ColumnCards returns the cards of one column sorted by position.
func ColumnCards(cards []board.Card, columnID string) []board.Card {
	var out []board.Card
	for _, c := range cards {
		if c.ColumnID == columnID {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b board.Card) int { return a.Position - b.Position })
	return out
}

// Positions lists the column, position and status of every card in the given
// columns, in column argument order. Duplicate column ids are listed once.
func Positions(cards []board.Card, columnIDs ...string) []board.CardPosition {
	var out []board.CardPosition
	seen := make(map[string]bool, len(columnIDs))
	for _, columnID := range columnIDs {
		if seen[columnID] {
			continue
		}
		seen[columnID] = true
		for _, c := range ColumnCards(cards, columnID) {
			out = append(out, board.CardPosition{
				CardID:   c.ID,
				ColumnID: c.ColumnID,
				Position: c.Position,
				Status:   c.Status,
			})
		}
	}
	return out
}

// Contiguous reports whether the cards of every column carry positions 1..N
// in slice order.
func Contiguous(cards []board.Card) bool {
	next := map[string]int{}
	for _, c := range cards {
		next[c.ColumnID]++
		if c.Position != next[c.ColumnID] {
			return false
		}
	}
	return true
}
