// Package watch renders a board to a terminal or as line-delimited JSON and
// re-renders it whenever the store changes.
package watch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/lipgloss"

	"github.com/dyluth/kanban/internal/mapper"
	"github.com/dyluth/kanban/internal/ordering"
	"github.com/dyluth/kanban/internal/store"
	"github.com/dyluth/kanban/pkg/board"
)

// OutputFormat selects how boards are written.
type OutputFormat string

const (
	// OutputFormatDefault draws columns side by side.
	OutputFormatDefault OutputFormat = "default"
	// OutputFormatJSON writes one board state per line.
	OutputFormatJSON OutputFormat = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputFormatDefault, OutputFormatJSON:
		return OutputFormat(s), nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

const columnWidth = 28

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Width(columnWidth)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
)

// Render writes one board in the given format.
func Render(w io.Writer, bs board.BoardState, format OutputFormat) error {
	if format == OutputFormatJSON {
		data, err := sonic.ConfigStd.Marshal(bs)
		if err != nil {
			return fmt.Errorf("failed to encode board %s: %w", bs.BoardID, err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	}

	_, err := io.WriteString(w, renderBoard(bs)+"\n")
	return err
}

func renderBoard(bs board.BoardState) string {
	title := orDefault(bs.Board.Name, mapper.DefaultBoardName)
	if bs.IsLoading {
		title += mutedStyle.Render(" (loading)")
	}

	columns := slices.Clone(bs.Columns)
	slices.SortStableFunc(columns, func(a, b board.Column) int { return a.Position - b.Position })

	rendered := make([]string, 0, len(columns))
	for _, col := range columns {
		rendered = append(rendered, renderColumn(col, ordering.ColumnCards(bs.Cards, col.ID)))
	}
	if len(rendered) == 0 {
		rendered = append(rendered, mutedStyle.Render("no columns"))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(title),
		lipgloss.JoinHorizontal(lipgloss.Top, rendered...),
	)
}

func renderColumn(col board.Column, cards []board.Card) string {
	heading := orDefault(col.Header, orDefault(col.Name, mapper.DefaultColumnName))
	lines := []string{headerStyle.Render(fmt.Sprintf("%s (%d)", heading, len(cards)))}
	for _, c := range cards {
		lines = append(lines, cardLine(c))
	}
	if len(cards) == 0 {
		lines = append(lines, mutedStyle.Render("empty"))
	}

	style := columnStyle
	if col.Color != nil && *col.Color != "" {
		style = style.BorderForeground(lipgloss.Color(*col.Color))
	}
	return style.Render(strings.Join(lines, "\n"))
}

func cardLine(c board.Card) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(c.Position))
	b.WriteString(". ")
	b.WriteString(orDefault(c.Name, mapper.DefaultCardName))

	var tags []string
	if c.Priority != nil && *c.Priority != "" {
		tags = append(tags, *c.Priority)
	}
	if c.StoryPoints != nil {
		tags = append(tags, strconv.FormatFloat(*c.StoryPoints, 'f', -1, 64)+"pt")
	}
	if c.AssigneeName != nil && *c.AssigneeName != "" {
		tags = append(tags, "@"+*c.AssigneeName)
	}
	if len(tags) > 0 {
		b.WriteString(" ")
		b.WriteString(mutedStyle.Render("[" + strings.Join(tags, " ") + "]"))
	}
	return b.String()
}

func orDefault(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

// Store is the part of the board store Stream follows.
type Store interface {
	Board(boardID string) (board.BoardState, bool)
	Subscribe(l store.Listener) store.ListenerID
	Unsubscribe(id store.ListenerID)
}

// Stream renders boardID now and after every store change that alters it,
// until ctx ends. Unchanged renders are skipped.
func Stream(ctx context.Context, st Store, boardID string, format OutputFormat, w io.Writer) error {
	wake := make(chan struct{}, 1)
	id := st.Subscribe(func(board.RootState) {
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	defer st.Unsubscribe(id)

	var last []byte
	render := func() error {
		bs, ok := st.Board(boardID)
		if !ok {
			return nil
		}
		var buf bytes.Buffer
		if err := Render(&buf, bs, format); err != nil {
			return err
		}
		if bytes.Equal(buf.Bytes(), last) {
			return nil
		}
		last = buf.Bytes()
		_, err := w.Write(last)
		return err
	}

	if err := render(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-wake:
			if err := render(); err != nil {
				return err
			}
		}
	}
}
