package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dyluth/kanban/internal/printer"
	"github.com/dyluth/kanban/pkg/board"
)

// seedColumns are the column headers of a seeded board, left to right.
var seedColumns = []string{"Backlog", "To Do", "In Progress", "Testing", "Review", "Done"}

var (
	seedName           string
	seedCardsPerColumn int
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a sample board",
	Long: `Create a board with six columns (Backlog, To Do, In Progress, Testing,
Review, Done) and optionally some empty cards in each column.

Examples:
  # Create an empty sample board
  kanban seed

  # Create a named board with three cards per column
  kanban seed --name "Sprint 12" --cards-per-column 3`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedName, "name", "", "Board name (default: Board_XXXX)")
	seedCmd.Flags().IntVar(&seedCardsPerColumn, "cards-per-column", 0, "Number of cards created in each column")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	if seedCardsPerColumn < 0 {
		return printer.Error(
			"invalid --cards-per-column",
			fmt.Sprintf("Expected zero or more cards, got %d", seedCardsPerColumn),
			nil,
		)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	printer.Step("Seeding %d columns with %d card(s) each\n", len(seedColumns), seedCardsPerColumn)
	boardID, err := seedBoard(ctx, sess.client, seedName, seedCardsPerColumn)
	if err != nil {
		return err
	}

	printer.Success("Created board %s\n", boardID)
	printer.Info("\nNext steps:\n")
	printer.Info("  kanban watch --board %s\n", boardID)
	printer.Info("  kanban serve --board %s\n", boardID)
	return nil
}

// seedBoard writes a sample board and returns its id.
func seedBoard(ctx context.Context, client *board.Client, name string, cardsPerColumn int) (string, error) {
	if name == "" {
		name = "Board_" + strings.ToUpper(uuid.NewString()[:4])
	}

	b, err := client.SaveBoard(ctx, board.BoardRecord{Name: board.StringPtr(name)})
	if err != nil {
		return "", fmt.Errorf("failed to create board: %w", err)
	}

	for j, header := range seedColumns {
		position := (j + 1) * 10
		col, err := client.SaveColumn(ctx, board.ColumnRecord{
			BoardID:  board.StringPtr(b.ID),
			Name:     board.StringPtr(header),
			Header:   board.StringPtr(header),
			Position: &position,
			Status:   board.StringPtr(header),
		})
		if err != nil {
			return "", fmt.Errorf("failed to create column %s: %w", header, err)
		}

		for k := 0; k < cardsPerColumn; k++ {
			cardPosition := k + 1
			if _, err := client.SaveCard(ctx, board.CardRecord{
				ColumnID: board.StringPtr(col.ID),
				Position: &cardPosition,
				Status:   board.StringPtr(header),
			}); err != nil {
				return "", fmt.Errorf("failed to create card in %s: %w", header, err)
			}
		}
	}
	return b.ID, nil
}
