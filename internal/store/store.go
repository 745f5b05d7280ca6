// Package store owns the canonical board state.
//
// Every change goes through Dispatch, which applies the reducer under a single
// lock and then notifies listeners in the order the actions were applied. The
// board verbs drive the async flows (fetch, create, move, delete) as sequences
// of dispatches, converting failures into ERROR actions.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/dyluth/kanban/internal/mapper"
	"github.com/dyluth/kanban/internal/ordering"
	"github.com/dyluth/kanban/internal/reducer"
	"github.com/dyluth/kanban/pkg/board"
)

// ErrBoardNotFound is returned by verbs that need a board the store has not loaded.
var ErrBoardNotFound = errors.New("board not found")

// Service is the remote side of the store. *service.Service implements it.
type Service interface {
	FetchBoardData(ctx context.Context, boardID string) (mapper.Snapshot, error)
	QueueCreateCard(ctx context.Context, columnID, columnStatus string) (board.Card, error)
	QueueUpdateCards(ctx context.Context, cards []board.CardPosition) ([]board.Card, error)
	QueueDeleteRecord(ctx context.Context, recordID string) error
}

// Listener receives the full state after every dispatch.
// Listeners run synchronously and may read the store, but must not call
// Dispatch or any board verb themselves.
type Listener func(state board.RootState)

// ListenerID identifies a subscribed listener.
type ListenerID uint64

type listenerEntry struct {
	id ListenerID
	fn Listener
}

// Store is the single writer of board state. Create one per process.
type Store struct {
	svc    Service
	logger *log.Entry

	mu      sync.Mutex // serializes reduce and swap
	state   board.RootState
	applied uint64 // sequence number of the last applied action

	turnMu   sync.Mutex
	turn     *sync.Cond
	notified uint64 // sequence number of the last notification pass

	listenersMu sync.Mutex
	listeners   []listenerEntry
	nextID      ListenerID
}

// New creates a store with an empty state.
func New(svc Service, logger *log.Entry) *Store {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	s := &Store{
		svc:    svc,
		logger: logger.WithField("component", "store"),
		state:  board.EmptyState(),
	}
	s.turn = sync.NewCond(&s.turnMu)
	return s
}

// Dispatch applies an action and notifies listeners. It returns the new state.
func (s *Store) Dispatch(action reducer.Action) board.RootState {
	s.mu.Lock()
	next := reducer.Reduce(s.state, action)
	s.state = next
	s.applied++
	seq := s.applied
	s.mu.Unlock()

	// Wait until every earlier dispatch has notified.
	s.turnMu.Lock()
	for s.notified != seq-1 {
		s.turn.Wait()
	}
	s.turnMu.Unlock()
	defer s.endTurn(seq)

	if action != nil {
		s.logger.WithField("action", action.Kind()).Debug("dispatch")
	}
	for _, l := range s.snapshotListeners() {
		l.fn(next)
	}
	return next
}

// endTurn hands the notification turn to the next dispatch.
func (s *Store) endTurn(seq uint64) {
	s.turnMu.Lock()
	s.notified = seq
	s.turn.Broadcast()
	s.turnMu.Unlock()
}

// State returns the current state.
func (s *Store) State() board.RootState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Board returns the current state of one board.
func (s *Store) Board(boardID string) (board.BoardState, bool) {
	bs, ok := s.State().Boards[boardID]
	return bs, ok
}

// Subscribe registers a listener for state changes.
func (s *Store) Subscribe(l Listener) ListenerID {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.nextID++
	s.listeners = append(s.listeners, listenerEntry{id: s.nextID, fn: l})
	return s.nextID
}

// Unsubscribe removes a listener. It is safe to call from within a listener;
// the notification pass in progress is not affected.
func (s *Store) Unsubscribe(id ListenerID) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	kept := make([]listenerEntry, 0, len(s.listeners))
	for _, l := range s.listeners {
		if l.id != id {
			kept = append(kept, l)
		}
	}
	s.listeners = kept
}

func (s *Store) snapshotListeners() []listenerEntry {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	return s.listeners
}

// Initialize fetches a board and replaces its state. On failure the state is
// rolled back and the error is recorded.
func (s *Store) Initialize(ctx context.Context, boardID string) error {
	s.Dispatch(reducer.SetLoading{BoardID: boardID, IsLoading: true})
	defer s.Dispatch(reducer.SetLoading{BoardID: boardID, IsLoading: false})

	snap, err := s.svc.FetchBoardData(ctx, boardID)
	if err != nil {
		return s.fail(err, true, boardID)
	}

	s.Dispatch(reducer.InitializeBoard{
		BoardID: boardID,
		Board:   snap.Board,
		Columns: snap.Columns,
		Cards:   snap.Cards,
	})
	return nil
}

// MoveCard applies a drop optimistically, then persists the new positions of
// every card in the source and target columns. The server-confirmed cards are
// merged back; on failure the optimistic move is undone.
func (s *Store) MoveCard(ctx context.Context, boardID string, drop board.Drop) error {
	if err := drop.Validate(); err != nil {
		return err
	}
	if _, ok := s.Board(boardID); !ok {
		return fmt.Errorf("move card %s: %w: %s", drop.CardID, ErrBoardNotFound, boardID)
	}

	s.Dispatch(reducer.SetLoading{BoardID: boardID, IsLoading: true})
	defer s.Dispatch(reducer.SetLoading{BoardID: boardID, IsLoading: false})

	state := s.Dispatch(reducer.MoveCard{BoardID: boardID, Move: ordering.FromDrop(drop)})
	bs, ok := state.Boards[boardID]
	if !ok {
		return s.fail(fmt.Errorf("%w: %s", ErrBoardNotFound, boardID), true, boardID)
	}

	positions := ordering.Positions(bs.Cards, drop.SourceColumnID, drop.TargetColumnID)
	confirmed, err := s.svc.QueueUpdateCards(ctx, positions)
	if err != nil {
		return s.fail(err, true, boardID)
	}

	s.Dispatch(reducer.UpdateCards{BoardID: boardID, Cards: confirmed})
	return nil
}

// CreateCard creates an empty card at the bottom of a column on the server and
// inserts the created card.
func (s *Store) CreateCard(ctx context.Context, boardID, columnID, columnStatus string) (board.Card, error) {
	s.Dispatch(reducer.SetLoading{BoardID: boardID, IsLoading: true})
	defer s.Dispatch(reducer.SetLoading{BoardID: boardID, IsLoading: false})

	card, err := s.svc.QueueCreateCard(ctx, columnID, columnStatus)
	if err != nil {
		return board.Card{}, s.fail(err, true, boardID)
	}

	s.Dispatch(reducer.UpsertCard{BoardID: boardID, Card: card})
	return card, nil
}

// AddCard inserts a card, or replaces an older copy of it.
func (s *Store) AddCard(boardID string, card board.Card) error {
	if err := card.Validate(); err != nil {
		return s.fail(err, false, boardID)
	}
	s.Dispatch(reducer.UpsertCard{BoardID: boardID, Card: card})
	return nil
}

// UpdateCard applies a patch to a card when the patch is newer than the stored card.
func (s *Store) UpdateCard(boardID string, patch board.CardPatch) error {
	if patch.CardID == "" {
		return s.fail(fmt.Errorf("update card: %w: cardId", board.ErrMissingID), false, boardID)
	}
	if _, ok := s.Board(boardID); !ok {
		return fmt.Errorf("update card %s: %w: %s", patch.CardID, ErrBoardNotFound, boardID)
	}

	s.Dispatch(reducer.SetLoading{BoardID: boardID, IsLoading: true})
	state := s.Dispatch(reducer.UpdateCard{BoardID: boardID, Patch: patch})
	s.Dispatch(reducer.SetLoading{BoardID: boardID, IsLoading: false})

	if c, ok := state.Boards[boardID].Card(patch.CardID); ok && !c.LastModifiedDate.Equal(patch.LastModifiedDate) {
		s.logger.WithFields(log.Fields{
			"board":    boardID,
			"card":     patch.CardID,
			"incoming": patch.LastModifiedDate,
			"current":  c.LastModifiedDate,
		}).Debug("stale card update dropped")
	}
	return nil
}

// DeleteCard removes a card from local state only.
func (s *Store) DeleteCard(boardID, cardID string) error {
	if cardID == "" {
		return s.fail(fmt.Errorf("delete card: %w: cardId", board.ErrMissingID), false, boardID)
	}
	if _, ok := s.Board(boardID); !ok {
		return fmt.Errorf("delete card %s: %w: %s", cardID, ErrBoardNotFound, boardID)
	}

	s.Dispatch(reducer.SetLoading{BoardID: boardID, IsLoading: true})
	s.Dispatch(reducer.DeleteCard{BoardID: boardID, CardID: cardID})
	s.Dispatch(reducer.SetLoading{BoardID: boardID, IsLoading: false})
	return nil
}

// RemoveCard deletes a card optimistically and then deletes its record on the
// server. A record that is already gone counts as deleted. On any other
// failure the card is restored.
func (s *Store) RemoveCard(ctx context.Context, boardID, cardID string) error {
	if cardID == "" {
		return s.fail(fmt.Errorf("remove card: %w: cardId", board.ErrMissingID), false, boardID)
	}
	if _, ok := s.Board(boardID); !ok {
		return fmt.Errorf("remove card %s: %w: %s", cardID, ErrBoardNotFound, boardID)
	}

	s.Dispatch(reducer.SetLoading{BoardID: boardID, IsLoading: true})
	defer s.Dispatch(reducer.SetLoading{BoardID: boardID, IsLoading: false})

	s.Dispatch(reducer.DeleteCard{BoardID: boardID, CardID: cardID})
	if err := s.svc.QueueDeleteRecord(ctx, cardID); err != nil && !board.IsNotFound(err) {
		return s.fail(err, true, boardID)
	}
	return nil
}

// AddColumn inserts a column, or replaces an older copy of it.
func (s *Store) AddColumn(boardID string, column board.Column) error {
	if err := column.Validate(); err != nil {
		return s.fail(err, false, boardID)
	}
	s.Dispatch(reducer.UpsertColumn{BoardID: boardID, Column: column})
	return nil
}

// UpdateColumn applies a patch to a column when the patch is newer than the stored column.
func (s *Store) UpdateColumn(boardID string, patch board.ColumnPatch) error {
	if patch.ColumnID == "" {
		return s.fail(fmt.Errorf("update column: %w: columnId", board.ErrMissingID), false, boardID)
	}
	if _, ok := s.Board(boardID); !ok {
		return fmt.Errorf("update column %s: %w: %s", patch.ColumnID, ErrBoardNotFound, boardID)
	}

	s.Dispatch(reducer.SetLoading{BoardID: boardID, IsLoading: true})
	s.Dispatch(reducer.UpdateColumn{BoardID: boardID, Patch: patch})
	s.Dispatch(reducer.SetLoading{BoardID: boardID, IsLoading: false})
	return nil
}

// DeleteColumn removes a column and its cards from local state only.
func (s *Store) DeleteColumn(boardID, columnID string) error {
	if columnID == "" {
		return s.fail(fmt.Errorf("delete column: %w: columnId", board.ErrMissingID), false, boardID)
	}
	if _, ok := s.Board(boardID); !ok {
		return fmt.Errorf("delete column %s: %w: %s", columnID, ErrBoardNotFound, boardID)
	}

	s.Dispatch(reducer.SetLoading{BoardID: boardID, IsLoading: true})
	s.Dispatch(reducer.DeleteColumn{BoardID: boardID, ColumnID: columnID})
	s.Dispatch(reducer.SetLoading{BoardID: boardID, IsLoading: false})
	return nil
}

// fail records err in the state, rolling back the last dispatch when revert is
// set, and returns err for Go callers.
func (s *Store) fail(err error, revert bool, boardID string) error {
	s.logger.WithError(err).WithFields(log.Fields{"board": boardID, "revert": revert}).Warn("board operation failed")
	s.Dispatch(reducer.SetError{Message: err.Error(), Revert: revert})
	return err
}
