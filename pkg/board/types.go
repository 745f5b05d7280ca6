package board

import (
	"errors"
	"fmt"
	"time"
)

// NoPosition marks a column or card whose position was not supplied by the source.
// Valid positions are 1-based.
const NoPosition = 0

var (
	// ErrMissingID is returned when a required identifier is empty.
	ErrMissingID = errors.New("missing required identifier")

	// ErrInvalidDrop is returned for drops without a target column or drops of a card onto itself.
	ErrInvalidDrop = errors.New("invalid drop")
)

// Board is the top-level container of columns and cards.
type Board struct {
	ID               string    `json:"boardId"`
	Name             *string   `json:"boardName,omitempty"`
	LastModifiedDate time.Time `json:"lastModifiedDate"`
}

// Column is an ordered lane of cards.
type Column struct {
	ID               string    `json:"columnId"`
	BoardID          string    `json:"boardId"`
	Name             *string   `json:"columnName,omitempty"`
	Header           *string   `json:"columnHeader,omitempty"`
	Color            *string   `json:"columnColor,omitempty"`
	Position         int       `json:"columnPosition"`
	Status           *string   `json:"columnStatus,omitempty"`
	URL              string    `json:"columnUrl,omitempty"`
	LastModifiedDate time.Time `json:"lastModifiedDate"`
}

// Card is a unit of work. It belongs to exactly one column and carries its
// 1-based position within that column.
type Card struct {
	ID               string    `json:"cardId"`
	ColumnID         string    `json:"columnId"`
	Name             *string   `json:"cardName,omitempty"`
	Subject          *string   `json:"cardSubject,omitempty"`
	Status           *string   `json:"cardStatus,omitempty"`
	AssigneeID       *string   `json:"assigneeId,omitempty"`
	AssigneeName     *string   `json:"assigneeName,omitempty"`
	AssigneePhoto    *string   `json:"assigneePhoto,omitempty"`
	CardType         *string   `json:"cardType,omitempty"`
	Priority         *string   `json:"cardPriority,omitempty"`
	StoryPoints      *float64  `json:"storyPoints,omitempty"`
	Color            *string   `json:"cardColor,omitempty"`
	URL              string    `json:"cardUrl,omitempty"`
	Position         int       `json:"cardPosition"`
	LastModifiedDate time.Time `json:"lastModifiedDate"`
}

// Validate checks that the card carries the identifiers every reducer path relies on.
func (c Card) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("card: %w: cardId", ErrMissingID)
	}
	return nil
}

// Validate checks that the column carries its identifier.
func (c Column) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("column: %w: columnId", ErrMissingID)
	}
	return nil
}

// NewerThan reports whether c should win a last-write-wins merge against existing.
func (c Card) NewerThan(existing Card) bool {
	return c.LastModifiedDate.After(existing.LastModifiedDate)
}

// NewerThan reports whether c should win a last-write-wins merge against existing.
func (c Column) NewerThan(existing Column) bool {
	return c.LastModifiedDate.After(existing.LastModifiedDate)
}

// Merge overlays the non-absent fields of incoming onto c.
// Identifiers are taken from incoming only when set.
func (c Card) Merge(incoming Card) Card {
	out := c
	if incoming.ID != "" {
		out.ID = incoming.ID
	}
	if incoming.ColumnID != "" {
		out.ColumnID = incoming.ColumnID
	}
	if incoming.Position != NoPosition {
		out.Position = incoming.Position
	}
	if incoming.URL != "" {
		out.URL = incoming.URL
	}
	if !incoming.LastModifiedDate.IsZero() {
		out.LastModifiedDate = incoming.LastModifiedDate
	}
	overlay(&out.Name, incoming.Name)
	overlay(&out.Subject, incoming.Subject)
	overlay(&out.Status, incoming.Status)
	overlay(&out.AssigneeID, incoming.AssigneeID)
	overlay(&out.AssigneeName, incoming.AssigneeName)
	overlay(&out.AssigneePhoto, incoming.AssigneePhoto)
	overlay(&out.CardType, incoming.CardType)
	overlay(&out.Priority, incoming.Priority)
	overlay(&out.StoryPoints, incoming.StoryPoints)
	overlay(&out.Color, incoming.Color)
	return out
}

func overlay[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

// CardPatch is a partial card update. Nil fields leave the stored value untouched.
type CardPatch struct {
	CardID           string
	LastModifiedDate time.Time
	ColumnID         *string
	Name             *string
	Subject          *string
	Status           *string
	AssigneeID       *string
	AssigneeName     *string
	AssigneePhoto    *string
	CardType         *string
	Priority         *string
	StoryPoints      *float64
	Color            *string
	Position         *int
}

// PatchFromCard builds a patch carrying every non-absent field of c.
func PatchFromCard(c Card) CardPatch {
	p := CardPatch{
		CardID:           c.ID,
		LastModifiedDate: c.LastModifiedDate,
		Name:             c.Name,
		Subject:          c.Subject,
		Status:           c.Status,
		AssigneeID:       c.AssigneeID,
		AssigneeName:     c.AssigneeName,
		AssigneePhoto:    c.AssigneePhoto,
		CardType:         c.CardType,
		Priority:         c.Priority,
		StoryPoints:      c.StoryPoints,
		Color:            c.Color,
	}
	if c.ColumnID != "" {
		col := c.ColumnID
		p.ColumnID = &col
	}
	if c.Position != NoPosition {
		pos := c.Position
		p.Position = &pos
	}
	return p
}

// Apply returns c with the patch applied and its timestamp advanced to the patch's.
func (p CardPatch) Apply(c Card) Card {
	out := c
	out.LastModifiedDate = p.LastModifiedDate
	if p.ColumnID != nil {
		out.ColumnID = *p.ColumnID
	}
	if p.Position != nil {
		out.Position = *p.Position
	}
	overlay(&out.Name, p.Name)
	overlay(&out.Subject, p.Subject)
	overlay(&out.Status, p.Status)
	overlay(&out.AssigneeID, p.AssigneeID)
	overlay(&out.AssigneeName, p.AssigneeName)
	overlay(&out.AssigneePhoto, p.AssigneePhoto)
	overlay(&out.CardType, p.CardType)
	overlay(&out.Priority, p.Priority)
	overlay(&out.StoryPoints, p.StoryPoints)
	overlay(&out.Color, p.Color)
	return out
}

// ColumnPatch is a partial column update. Nil fields leave the stored value untouched.
type ColumnPatch struct {
	ColumnID         string
	LastModifiedDate time.Time
	BoardID          *string
	Name             *string
	Header           *string
	Color            *string
	Status           *string
	Position         *int
}

// PatchFromColumn builds a patch carrying every non-absent field of c.
func PatchFromColumn(c Column) ColumnPatch {
	p := ColumnPatch{
		ColumnID:         c.ID,
		LastModifiedDate: c.LastModifiedDate,
		Name:             c.Name,
		Header:           c.Header,
		Color:            c.Color,
		Status:           c.Status,
	}
	if c.BoardID != "" {
		id := c.BoardID
		p.BoardID = &id
	}
	if c.Position != NoPosition {
		pos := c.Position
		p.Position = &pos
	}
	return p
}

// Apply returns c with the patch applied and its timestamp advanced to the patch's.
func (p ColumnPatch) Apply(c Column) Column {
	out := c
	out.LastModifiedDate = p.LastModifiedDate
	if p.BoardID != nil {
		out.BoardID = *p.BoardID
	}
	if p.Position != nil {
		out.Position = *p.Position
	}
	overlay(&out.Name, p.Name)
	overlay(&out.Header, p.Header)
	overlay(&out.Color, p.Color)
	overlay(&out.Status, p.Status)
	return out
}

// BoardState is the client-side view of one board.
type BoardState struct {
	BoardID   string   `json:"boardId"`
	Board     Board    `json:"board"`
	Columns   []Column `json:"columns"`
	Cards     []Card   `json:"cards"`
	IsLoading bool     `json:"isLoading"`
}

// Card returns the card with the given id.
func (b BoardState) Card(cardID string) (Card, bool) {
	for _, c := range b.Cards {
		if c.ID == cardID {
			return c, true
		}
	}
	return Card{}, false
}

// Column returns the column with the given id.
func (b BoardState) Column(columnID string) (Column, bool) {
	for _, c := range b.Columns {
		if c.ID == columnID {
			return c, true
		}
	}
	return Column{}, false
}

// RootState holds every board known to the session plus the last surfaced error.
//
// A RootState remembers the state it was derived from, one level deep, so a failed
// optimistic update can be rolled back. Values are never modified in place.
type RootState struct {
	Boards map[string]BoardState `json:"boards"`
	Error  string                `json:"error,omitempty"`

	previous *RootState
}

// EmptyState returns a RootState with no boards.
func EmptyState() RootState {
	return RootState{Boards: map[string]BoardState{}}
}

// Previous returns the state this one was derived from, if any.
func (s RootState) Previous() (RootState, bool) {
	if s.previous == nil {
		return RootState{}, false
	}
	return *s.previous, true
}

// WithPrevious returns s remembering prev as its rollback source.
// Only one level is kept: prev's own history is dropped.
func (s RootState) WithPrevious(prev RootState) RootState {
	prev.previous = nil
	s.previous = &prev
	return s
}

// Drop describes a drag-and-drop gesture.
type Drop struct {
	CardID             string  `json:"cardId"`
	SourceColumnID     string  `json:"sourceColumnId"`
	TargetColumnID     string  `json:"targetColumnId"`
	TargetCardID       string  `json:"targetCardId,omitempty"`
	TargetColumnStatus *string `json:"targetColumnStatus,omitempty"`
}

// Validate rejects drops with no target column and drops of a card onto itself.
func (d Drop) Validate() error {
	if d.CardID == "" {
		return fmt.Errorf("%w: cardId is required", ErrInvalidDrop)
	}
	if d.TargetColumnID == "" {
		return fmt.Errorf("%w: targetColumnId is required", ErrInvalidDrop)
	}
	if d.CardID == d.TargetCardID && d.SourceColumnID == d.TargetColumnID {
		return fmt.Errorf("%w: card %s dropped onto itself", ErrInvalidDrop, d.CardID)
	}
	return nil
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }
