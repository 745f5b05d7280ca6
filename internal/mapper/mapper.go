// Package mapper translates remote wire records and push-event payloads into
// the canonical board model.
package mapper

import (
	"fmt"
	"strings"
	"time"

	"github.com/dyluth/kanban/pkg/board"
)

// Display-name placeholders for records without a name.
const (
	DefaultBoardName  = "Unnamed Board"
	DefaultColumnName = "Unnamed Column"
	DefaultCardName   = "Unnamed Card"
)

// DefaultLinkBase is the deep-link prefix used when none is configured.
const DefaultLinkBase = "/lightning/r"

// Object names used in deep links.
const (
	cardObject   = "Card"
	columnObject = "Column"
)

// accepted timestamp layouts, tried in order
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
}

// Snapshot is a fully mapped board fetch.
type Snapshot struct {
	Board   board.Board
	Columns []board.Column
	Cards   []board.Card
}

// Mapper converts wire shapes to canonical entities. It is stateless apart
// from the deep-link base and safe for concurrent use.
type Mapper struct {
	linkBase string
}

// New creates a mapper building deep links under linkBase.
func New(linkBase string) *Mapper {
	if linkBase == "" {
		linkBase = DefaultLinkBase
	}
	return &Mapper{linkBase: strings.TrimRight(linkBase, "/")}
}

// MapBoardData maps a board fetch result. A nil board record maps to a board
// with no id and the placeholder name.
func (m *Mapper) MapBoardData(data *board.BoardData) Snapshot {
	snap := Snapshot{
		Board:   board.Board{Name: board.StringPtr(DefaultBoardName)},
		Columns: []board.Column{},
		Cards:   []board.Card{},
	}
	if data == nil {
		return snap
	}

	if data.Board != nil {
		snap.Board = board.Board{
			ID:               data.Board.ID,
			Name:             orDefault(data.Board.Name, DefaultBoardName),
			LastModifiedDate: FormatTimestamp(data.Board.LastModifiedDate),
		}
	}
	for _, r := range data.Columns {
		snap.Columns = append(snap.Columns, m.MapColumn(r))
	}
	snap.Cards = append(snap.Cards, m.MapCards(data.Cards)...)
	return snap
}

// MapColumn maps a column record. The header falls back to the column name,
// then to the placeholder.
func (m *Mapper) MapColumn(r board.ColumnRecord) board.Column {
	header := r.Header
	if header == nil {
		header = orDefault(r.Name, DefaultColumnName)
	}
	return board.Column{
		ID:               r.ID,
		BoardID:          deref(r.BoardID),
		Name:             orDefault(r.Name, DefaultColumnName),
		Header:           header,
		Color:            r.Color,
		Position:         position(r.Position),
		Status:           r.Status,
		URL:              m.link(columnObject, r.ID),
		LastModifiedDate: FormatTimestamp(r.LastModifiedDate),
	}
}

// MapCard maps a card record, including the related assignee's name and photo.
func (m *Mapper) MapCard(r board.CardRecord) board.Card {
	c := board.Card{
		ID:               r.ID,
		ColumnID:         deref(r.ColumnID),
		Name:             orDefault(r.Name, DefaultCardName),
		Subject:          r.Subject,
		Status:           r.Status,
		AssigneeID:       r.AssigneeID,
		CardType:         r.CardType,
		Priority:         r.Priority,
		StoryPoints:      r.StoryPoints,
		Color:            r.Color,
		URL:              m.link(cardObject, r.ID),
		Position:         position(r.Position),
		LastModifiedDate: FormatTimestamp(r.LastModifiedDate),
	}
	if r.Assignee != nil {
		c.AssigneeName = r.Assignee.Name
		c.AssigneePhoto = r.Assignee.SmallPhotoURL
	}
	return c
}

// MapCards maps a slice of card records.
func (m *Mapper) MapCards(records []board.CardRecord) []board.Card {
	out := make([]board.Card, 0, len(records))
	for _, r := range records {
		out = append(out, m.MapCard(r))
	}
	return out
}

// CardFromEvent maps a card event payload. Names are not defaulted and the
// timestamp keeps its full precision.
func (m *Mapper) CardFromEvent(ev *board.CardEvent) board.Card {
	id := deref(ev.CardID)
	return board.Card{
		ID:               id,
		ColumnID:         deref(ev.ColumnID),
		Name:             ev.Name,
		Subject:          ev.Subject,
		Status:           ev.Status,
		AssigneeID:       ev.AssigneeID,
		CardType:         ev.CardType,
		Priority:         ev.Priority,
		StoryPoints:      ev.StoryPoints,
		Color:            ev.Color,
		URL:              m.link(cardObject, id),
		Position:         position(ev.Position),
		LastModifiedDate: parseTimestamp(deref(ev.LastModifiedDate)),
	}
}

// ColumnFromEvent maps a column event payload. Names are not defaulted and the
// timestamp keeps its full precision.
func (m *Mapper) ColumnFromEvent(ev *board.ColumnEvent) board.Column {
	id := deref(ev.ColumnID)
	return board.Column{
		ID:               id,
		BoardID:          deref(ev.BoardID),
		Name:             ev.Name,
		Header:           ev.Header,
		Color:            ev.Color,
		Position:         position(ev.Position),
		Status:           ev.Status,
		URL:              m.link(columnObject, id),
		LastModifiedDate: parseTimestamp(deref(ev.LastModifiedDate)),
	}
}

// FormatTimestamp parses a record timestamp and truncates it to whole seconds
// in UTC. Empty or unparsable input yields the zero time.
func FormatTimestamp(s string) time.Time {
	t := parseTimestamp(s)
	if t.IsZero() {
		return t
	}
	return t.Truncate(time.Second)
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func (m *Mapper) link(object, id string) string {
	if id == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s/view", m.linkBase, object, id)
}

func orDefault(s *string, fallback string) *string {
	if s != nil {
		return s
	}
	return board.StringPtr(fallback)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func position(p *int) int {
	if p == nil {
		return board.NoPosition
	}
	return *p
}
