package filter

import (
	"path/filepath"
	"time"

	"github.com/dyluth/kanban/pkg/board"
)

// Criteria defines filtering criteria for cards.
// All filters are ANDed together - a card must match ALL criteria to pass.
type Criteria struct {
	Since    time.Time // Modified at or after, zero = no filter
	Until    time.Time // Modified at or before, zero = no filter
	TypeGlob string    // Glob pattern for card type, empty = no filter
	Assignee string    // Exact match on assignee id or name, empty = no filter
}

// Matches returns true if the card matches all filter criteria.
// Empty/zero criteria values are treated as "match all" for that criterion.
func (c *Criteria) Matches(card board.Card) bool {
	if !c.Since.IsZero() && card.LastModifiedDate.Before(c.Since) {
		return false
	}
	if !c.Until.IsZero() && card.LastModifiedDate.After(c.Until) {
		return false
	}

	if c.TypeGlob != "" {
		if card.CardType == nil {
			return false
		}
		matched, err := filepath.Match(c.TypeGlob, *card.CardType)
		if err != nil || !matched {
			return false
		}
	}

	if c.Assignee != "" && !equals(card.AssigneeID, c.Assignee) && !equals(card.AssigneeName, c.Assignee) {
		return false
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return !c.Since.IsZero() ||
		!c.Until.IsZero() ||
		c.TypeGlob != "" ||
		c.Assignee != ""
}

// Board returns bs with only the matching cards. Columns are kept and card
// positions are left as stored.
func (c *Criteria) Board(bs board.BoardState) board.BoardState {
	if !c.HasFilters() {
		return bs
	}
	cards := make([]board.Card, 0, len(bs.Cards))
	for _, card := range bs.Cards {
		if c.Matches(card) {
			cards = append(cards, card)
		}
	}
	bs.Cards = cards
	return bs
}

// Validate reports a malformed type glob.
func (c *Criteria) Validate() error {
	if c.TypeGlob == "" {
		return nil
	}
	_, err := filepath.Match(c.TypeGlob, "")
	return err
}

func equals(s *string, want string) bool {
	return s != nil && *s == want
}
