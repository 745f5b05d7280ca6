package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/kanban/internal/printer"
	"github.com/dyluth/kanban/internal/resolver"
	"github.com/dyluth/kanban/internal/store"
	"github.com/dyluth/kanban/pkg/board"
)

var (
	cardBoard  string
	cardColumn string
	cardStatus string
	cardID     string
	cardTo     string
	cardBefore string
)

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Create, move and remove cards",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var cardCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an empty card at the bottom of a column",
	Long: `Create an empty card at the bottom of a column.

The card takes the column's status unless --status is given.

Examples:
  kanban card create --board Board_1a2b --column <column-id>`,
	RunE: runCardCreate,
}

var cardMoveCmd = &cobra.Command{
	Use:   "move",
	Short: "Move a card to another column or position",
	Long: `Move a card into a column, either to the bottom or onto another card.

Dropped onto a card in another column, the moved card takes that card's
place; dropped onto the last card of a column, it goes below it.

Both affected columns are renumbered and persisted in one batch; if the
write fails the board is rolled back.

Examples:
  # Move to the bottom of a column
  kanban card move --card <card-id> --to <column-id>

  # Move onto another card
  kanban card move --card <card-id> --to <column-id> --before <card-id>`,
	RunE: runCardMove,
}

var cardRmCmd = &cobra.Command{
	Use:   "rm",
	Short: "Delete a card",
	Long: `Delete a card from its board.

Examples:
  kanban card rm --board Board_1a2b --card <card-id>`,
	RunE: runCardRm,
}

func init() {
	for _, c := range []*cobra.Command{cardCreateCmd, cardMoveCmd, cardRmCmd} {
		c.Flags().StringVarP(&cardBoard, "board", "b", "", "Board id (defaults to the first board in kanban.yml)")
	}

	cardCreateCmd.Flags().StringVar(&cardColumn, "column", "", "Column id or id prefix (required)")
	cardCreateCmd.Flags().StringVar(&cardStatus, "status", "", "Card status (default: the column's status)")
	_ = cardCreateCmd.MarkFlagRequired("column")

	cardMoveCmd.Flags().StringVar(&cardID, "card", "", "Card id or id prefix (required)")
	cardMoveCmd.Flags().StringVar(&cardTo, "to", "", "Target column id or id prefix (required)")
	cardMoveCmd.Flags().StringVar(&cardBefore, "before", "", "Drop onto this card of the target column (default: bottom of the column)")
	_ = cardMoveCmd.MarkFlagRequired("card")
	_ = cardMoveCmd.MarkFlagRequired("to")

	cardRmCmd.Flags().StringVar(&cardID, "card", "", "Card id or id prefix (required)")
	_ = cardRmCmd.MarkFlagRequired("card")

	cardCmd.AddCommand(cardCreateCmd, cardMoveCmd, cardRmCmd)
	rootCmd.AddCommand(cardCmd)
}

// withBoard loads the selected board and runs fn against the session.
func withBoard(fn func(ctx context.Context, sess *session, boardID string) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	boardID, err := resolveBoard(cfg, cardBoard)
	if err != nil {
		return err
	}

	ctx := context.Background()
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.loadBoard(ctx, boardID); err != nil {
		return err
	}
	return fn(ctx, sess, boardID)
}

func runCardCreate(cmd *cobra.Command, args []string) error {
	return withBoard(func(ctx context.Context, sess *session, boardID string) error {
		columnID, status, err := createTarget(sess.store, boardID, cardColumn, cardStatus)
		if err != nil {
			return err
		}
		card, err := sess.store.CreateCard(ctx, boardID, columnID, status)
		if err != nil {
			return fmt.Errorf("failed to create card: %w", err)
		}
		printer.Success("Created card %s at position %d\n", card.ID, card.Position)
		return nil
	})
}

func runCardMove(cmd *cobra.Command, args []string) error {
	return withBoard(func(ctx context.Context, sess *session, boardID string) error {
		bs, _ := sess.store.Board(boardID)
		drop, err := buildDrop(bs, cardID, cardTo, cardBefore)
		if err != nil {
			return err
		}
		if err := sess.store.MoveCard(ctx, boardID, drop); err != nil {
			return fmt.Errorf("failed to move card: %w", err)
		}
		bs, _ = sess.store.Board(boardID)
		moved, _ := bs.Card(drop.CardID)
		printer.Success("Moved card %s to column %s at position %d\n", moved.ID, moved.ColumnID, moved.Position)
		return nil
	})
}

func runCardRm(cmd *cobra.Command, args []string) error {
	return withBoard(func(ctx context.Context, sess *session, boardID string) error {
		bs, _ := sess.store.Board(boardID)
		id, err := resolver.ResolveCardID(bs, cardID)
		var ambiguous *resolver.AmbiguousError
		switch {
		case errors.As(err, &ambiguous):
			return printer.Error(fmt.Sprintf("ambiguous card id '%s'", cardID), resolver.FormatAmbiguousError(ambiguous), nil)
		case err != nil:
			// Not loaded here; the server may still know it.
			id = cardID
		}

		if err := sess.store.RemoveCard(ctx, boardID, id); err != nil {
			return fmt.Errorf("failed to delete card: %w", err)
		}
		printer.Success("Deleted card %s\n", id)
		return nil
	})
}

// lookup resolves a card or column id prefix, printing a formatted error
// when it matches nothing or more than one record.
func lookup(bs board.BoardState, kind, shortID string, resolve func(board.BoardState, string) (string, error)) (string, error) {
	id, err := resolve(bs, shortID)
	if err == nil {
		return id, nil
	}

	var ambiguous *resolver.AmbiguousError
	if errors.As(err, &ambiguous) {
		return "", printer.Error(fmt.Sprintf("ambiguous %s id '%s'", kind, shortID), resolver.FormatAmbiguousError(ambiguous), nil)
	}
	return "", printer.Error(
		fmt.Sprintf("%s '%s' not found", kind, shortID),
		fmt.Sprintf("Board %s has no such %s.", bs.BoardID, kind),
		[]string{fmt.Sprintf("List the board:\n  kanban watch --board %s --once --output=json", bs.BoardID)},
	)
}

// createTarget resolves the column a card is created in and the card's
// status: the explicit status, or else the status of the column.
func createTarget(st *store.Store, boardID, column, status string) (string, string, error) {
	bs, _ := st.Board(boardID)
	columnID, err := lookup(bs, "column", column, resolver.ResolveColumnID)
	if err != nil {
		return "", "", err
	}
	if status != "" {
		return columnID, status, nil
	}
	if col, _ := bs.Column(columnID); col.Status != nil {
		return columnID, *col.Status, nil
	}
	return columnID, "", nil
}

// buildDrop describes dropping a card into column to, onto the card before
// when one is given. All three accept id prefixes.
func buildDrop(bs board.BoardState, card, to, before string) (board.Drop, error) {
	id, err := lookup(bs, "card", card, resolver.ResolveCardID)
	if err != nil {
		return board.Drop{}, err
	}
	columnID, err := lookup(bs, "column", to, resolver.ResolveColumnID)
	if err != nil {
		return board.Drop{}, err
	}

	var targetID string
	if before != "" {
		targetID, err = lookup(bs, "card", before, resolver.ResolveCardID)
		if err != nil {
			return board.Drop{}, err
		}
		if c, _ := bs.Card(targetID); c.ColumnID != columnID {
			return board.Drop{}, printer.Error(
				fmt.Sprintf("card '%s' is not in column '%s'", before, to),
				"--before must name a card in the target column.",
				nil,
			)
		}
	}

	moving, _ := bs.Card(id)
	target, _ := bs.Column(columnID)
	return board.Drop{
		CardID:             id,
		SourceColumnID:     moving.ColumnID,
		TargetColumnID:     columnID,
		TargetCardID:       targetID,
		TargetColumnStatus: target.Status,
	}, nil
}
