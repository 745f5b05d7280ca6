package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dyluth/kanban/internal/filter"
	"github.com/dyluth/kanban/internal/printer"
	"github.com/dyluth/kanban/internal/timespec"
	"github.com/dyluth/kanban/internal/watch"
	"github.com/dyluth/kanban/pkg/board"
)

var (
	watchBoard        string
	watchOutputFormat string
	watchOnce         bool
	watchSince        string
	watchUntil        string
	watchType         string
	watchAssignee     string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Render a board and follow realtime changes",
	Long: `Render a board in the terminal and redraw it whenever it changes, whether
the change was made here or arrived as a realtime event.

Output Formats:
  default - Columns side by side
  json    - Line-delimited JSON, one board state per change

Card Filters:
  --since    - Cards modified after this time (duration or RFC3339)
  --until    - Cards modified before this time
  --type     - Card type (glob pattern: "Bug", "Story*")
  --assignee - Assignee id or name (exact match)

Examples:
  # Watch the first board in kanban.yml
  kanban watch

  # Export board states as JSON
  kanban watch --board Board_1a2b --output=json > board.jsonl

  # Print the board once and exit
  kanban watch --once

  # Follow bugs assigned to sam changed in the last day
  kanban watch --type=Bug --assignee=sam --since=24h`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchBoard, "board", "b", "", "Board id (defaults to the first board in kanban.yml)")
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "Render once and exit")
	watchCmd.Flags().StringVar(&watchSince, "since", "", "Show cards modified after time (duration or RFC3339)")
	watchCmd.Flags().StringVar(&watchUntil, "until", "", "Show cards modified before time (duration or RFC3339)")
	watchCmd.Flags().StringVar(&watchType, "type", "", "Filter by card type (glob pattern)")
	watchCmd.Flags().StringVar(&watchAssignee, "assignee", "", "Filter by assignee id or name")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	outputFormat, err := watch.ParseFormat(watchOutputFormat)
	if err != nil {
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	criteria, err := watchCriteria(time.Now())
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	boardID, err := resolveBoard(cfg, watchBoard)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.loadBoard(ctx, boardID); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	view := filteredStore{Store: sess.store, criteria: criteria}
	if watchOnce {
		bs, _ := view.Board(boardID)
		return watch.Render(out, bs, outputFormat)
	}

	sub := sess.subscriber(boardID, printer.NewToaster(cmd.ErrOrStderr()))
	defer sub.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	subErr := make(chan error, 1)
	go func() {
		err := sub.Run(ctx)
		// A subscription that gives up ends the watch.
		cancel()
		subErr <- err
	}()

	if err := watch.Stream(ctx, view, boardID, outputFormat, out); err != nil {
		return fmt.Errorf("failed to render board: %w", err)
	}
	if err := <-subErr; err != nil {
		return err
	}
	return nil
}

func watchCriteria(now time.Time) (*filter.Criteria, error) {
	since, until, err := timespec.ParseRange(watchSince, watchUntil, now)
	if err != nil {
		return nil, printer.Error("invalid time filter", err.Error(), []string{"Use a duration like 2h or a timestamp like 2025-10-29T13:00:00Z"})
	}
	criteria := &filter.Criteria{
		Since:    since,
		Until:    until,
		TypeGlob: watchType,
		Assignee: watchAssignee,
	}
	if err := criteria.Validate(); err != nil {
		return nil, printer.Error("invalid --type pattern", err.Error(), nil)
	}
	return criteria, nil
}

// filteredStore shows only the cards matching criteria.
type filteredStore struct {
	watch.Store
	criteria *filter.Criteria
}

func (f filteredStore) Board(boardID string) (board.BoardState, bool) {
	bs, ok := f.Store.Board(boardID)
	return f.criteria.Board(bs), ok
}
