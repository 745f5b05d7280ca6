// Package subscriber feeds server-pushed card and column events into the store.
//
// A Subscriber owns one push subscription for one board. Card and column
// events are routed to the matching store verb; events for other boards are
// dropped. When the subscription cannot be established, or the stream ends, it
// retries up to MaxRetries times before giving up.
package subscriber

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dyluth/kanban/internal/mapper"
	"github.com/dyluth/kanban/pkg/board"
)

// DefaultMaxRetries is the number of reconnect attempts before giving up.
const DefaultMaxRetries = 5

// Toast variants understood by notifiers.
const (
	VariantInfo    = "info"
	VariantSuccess = "success"
	VariantWarning = "warning"
	VariantError   = "error"
)

// Toast messages posted on connection changes.
const (
	MsgRetrying     = "Failed to subscribe to realtime updates. Retry attempt %d"
	MsgDropped      = "Disconnected from realtime updates. Retrying.."
	MsgExhausted    = "Failed to reconnect after multiple attempts."
	MsgDisconnected = "Disconnected from realtime updates"
	TitleError      = "Subscription Error"
)

var (
	// ErrRetriesExhausted is returned by Run when every reconnect attempt failed.
	ErrRetriesExhausted = errors.New("subscription retries exhausted")

	// ErrUnknownEvent is reported for events with an unrecognised discriminator.
	ErrUnknownEvent = errors.New("unknown event type")

	errStreamClosed = errors.New("event stream closed")
)

// Stream is an active push subscription.
type Stream interface {
	Events() <-chan board.Event
	Errors() <-chan error
	Close() error
}

// Source opens push subscriptions.
type Source interface {
	Subscribe(ctx context.Context) (Stream, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Stream, error)

// Subscribe calls f.
func (f SourceFunc) Subscribe(ctx context.Context) (Stream, error) {
	return f(ctx)
}

// FromClient returns a Source backed by the Redis board client.
func FromClient(c *board.Client) Source {
	return SourceFunc(func(ctx context.Context) (Stream, error) {
		sub, err := c.Subscribe(ctx)
		if err != nil {
			return nil, err
		}
		return sub, nil
	})
}

// Notifier shows short user-facing notices.
type Notifier interface {
	Toast(title, message, variant string)
}

// Store is the part of the board store the subscriber drives.
type Store interface {
	Board(boardID string) (board.BoardState, bool)
	AddCard(boardID string, card board.Card) error
	UpdateCard(boardID string, patch board.CardPatch) error
	DeleteCard(boardID, cardID string) error
	AddColumn(boardID string, column board.Column) error
	UpdateColumn(boardID string, patch board.ColumnPatch) error
	DeleteColumn(boardID, columnID string) error
}

// Config tunes retry behaviour and event mapping.
type Config struct {
	// MaxRetries is the number of reconnect attempts. Zero means DefaultMaxRetries.
	MaxRetries int
	// RetryDelay is waited before each reconnect attempt.
	RetryDelay time.Duration
	Mapper     *mapper.Mapper
	Logger     *log.Entry
}

// Subscriber connects one board to the push channel.
type Subscriber struct {
	boardID  string
	store    Store
	source   Source
	notifier Notifier
	mapper   *mapper.Mapper
	cfg      Config
	logger   *log.Entry

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
}

// New creates a subscriber for boardID. A nil notifier discards toasts.
func New(boardID string, store Store, source Source, notifier Notifier, cfg Config) *Subscriber {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Mapper == nil {
		cfg.Mapper = mapper.New("")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	if notifier == nil {
		notifier = discard{}
	}
	return &Subscriber{
		boardID:  boardID,
		store:    store,
		source:   source,
		notifier: notifier,
		mapper:   cfg.Mapper,
		cfg:      cfg,
		logger:   logger.WithFields(log.Fields{"component": "subscriber", "board": boardID}),
	}
}

// Run subscribes and applies events until ctx ends, Close is called, or the
// retries are exhausted. It returns nil on a requested shutdown.
func (s *Subscriber) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.cancel = cancel
	s.mu.Unlock()

	failures := 0
	for {
		stream, err := s.source.Subscribe(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			failures++
			s.logger.WithError(err).WithField("attempt", failures).Warn("subscribe failed")
			if err := s.retry(ctx, failures); err != nil {
				return err
			}
			continue
		}

		s.logger.Info("subscribed to board events")

		received, err := s.consume(ctx, stream)
		stream.Close()
		if ctx.Err() != nil {
			return nil
		}
		// A stream that delivered something counts as a recovered connection.
		if received {
			failures = 0
		}

		failures++
		s.logger.WithError(err).Warn("event stream ended")
		s.notifier.Toast("", MsgDropped, VariantInfo)
		if err := s.retry(ctx, failures); err != nil {
			return err
		}
	}
}

// Close stops Run and posts a disconnect notice.
func (s *Subscriber) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.notifier.Toast("", MsgDisconnected, VariantInfo)
}

// retry posts the attempt notice and waits, or reports exhaustion.
func (s *Subscriber) retry(ctx context.Context, failures int) error {
	if failures > s.cfg.MaxRetries {
		s.logger.WithField("attempts", failures).Error(MsgExhausted)
		s.notifier.Toast(TitleError, MsgExhausted, VariantError)
		return fmt.Errorf("board %s: %w", s.boardID, ErrRetriesExhausted)
	}
	s.notifier.Toast("", fmt.Sprintf(MsgRetrying, failures), VariantInfo)

	if s.cfg.RetryDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.cfg.RetryDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
	return nil
}

func (s *Subscriber) consume(ctx context.Context, stream Stream) (bool, error) {
	events, errs := stream.Events(), stream.Errors()
	received := false
	for {
		select {
		case <-ctx.Done():
			return received, nil
		case ev, ok := <-events:
			if !ok {
				return received, errStreamClosed
			}
			received = true
			if err := s.Handle(ev); err != nil {
				s.reject(err)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			received = true
			s.reject(err)
		}
	}
}

func (s *Subscriber) reject(err error) {
	s.logger.WithError(err).Warn("event rejected")
	s.notifier.Toast("Error", err.Error(), VariantError)
}

// Handle applies one pushed event. Events that do not concern this board
// return nil without touching the store.
func (s *Subscriber) Handle(ev board.Event) error {
	switch {
	case ev.Card != nil:
		return s.handleCard(ev.Card)
	case ev.Column != nil:
		return s.handleColumn(ev.Column)
	}
	return fmt.Errorf("%w: empty event on %s", ErrUnknownEvent, ev.Channel)
}

func (s *Subscriber) handleCard(ev *board.CardEvent) error {
	card := s.mapper.CardFromEvent(ev)
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%s event: %w", ev.EventType, err)
	}

	switch ev.EventType {
	case board.EventCardCreate:
		bs, ok := s.store.Board(s.boardID)
		if !ok {
			s.ignore("board not loaded", ev.EventType, card.ID)
			return nil
		}
		if _, ok := bs.Column(card.ColumnID); !ok {
			s.ignore("column not on board", ev.EventType, card.ID)
			return nil
		}
		return s.store.AddCard(s.boardID, card)
	case board.EventCardUpdate:
		return s.store.UpdateCard(s.boardID, board.PatchFromCard(card))
	case board.EventCardDelete:
		return s.store.DeleteCard(s.boardID, card.ID)
	}
	return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.EventType)
}

func (s *Subscriber) handleColumn(ev *board.ColumnEvent) error {
	column := s.mapper.ColumnFromEvent(ev)
	if err := column.Validate(); err != nil {
		return fmt.Errorf("%s event: %w", ev.EventType, err)
	}

	if column.BoardID == "" {
		bs, _ := s.store.Board(s.boardID)
		if _, ok := bs.Column(column.ID); !ok {
			s.ignore("column not on board", ev.EventType, column.ID)
			return nil
		}
		column.BoardID = s.boardID
	}
	if column.BoardID != s.boardID {
		s.ignore("other board", ev.EventType, column.ID)
		return nil
	}

	switch ev.EventType {
	case board.EventColumnCreate:
		return s.store.AddColumn(s.boardID, column)
	case board.EventColumnUpdate:
		return s.store.UpdateColumn(s.boardID, board.PatchFromColumn(column))
	case board.EventColumnDelete:
		return s.store.DeleteColumn(s.boardID, column.ID)
	}
	return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.EventType)
}

func (s *Subscriber) ignore(reason, eventType, id string) {
	s.logger.WithFields(log.Fields{"event": eventType, "id": id, "reason": reason}).Debug("event ignored")
}

type discard struct{}

func (discard) Toast(string, string, string) {}
