package board

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TimestampLayout is the layout the Redis remote uses for LastModifiedDate.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ErrNotFound is returned when a board, column, card or record id is unknown to the remote.
var ErrNotFound = errors.New("record not found")

// Client is the Redis-backed remote for boards. It serves board fetches,
// card mutations and record deletes, and publishes an event on the card or
// column channel after every write.
// All keys and channels are namespaced. The client is safe for concurrent use.
type Client struct {
	rdb       *redis.Client
	namespace string
}

// NewClient creates a new board client for the given namespace.
// Returns an error if namespace is empty.
func NewClient(redisOpts *redis.Options, namespace string) (*Client, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}

	return &Client{
		rdb:       redis.NewClient(redisOpts),
		namespace: namespace,
	}, nil
}

// Namespace returns the key namespace this client writes under.
func (c *Client) Namespace() string {
	return c.namespace
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// FetchBoardData reads a board with all of its columns and cards.
// Columns are ordered by position; cards by column order then position.
func (c *Client) FetchBoardData(ctx context.Context, boardID string) (*BoardData, error) {
	hash, err := c.rdb.HGetAll(ctx, BoardKey(c.namespace, boardID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read board from Redis: %w", err)
	}
	if len(hash) == 0 {
		return nil, fmt.Errorf("board %s: %w", boardID, ErrNotFound)
	}

	columnIDs, err := c.rdb.SMembers(ctx, BoardColumnsKey(c.namespace, boardID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read board columns: %w", err)
	}

	data := &BoardData{
		Board:   HashToBoard(hash),
		Columns: make([]ColumnRecord, 0, len(columnIDs)),
		Cards:   []CardRecord{},
	}

	for _, columnID := range columnIDs {
		column, err := c.getColumn(ctx, columnID)
		if IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		data.Columns = append(data.Columns, *column)

		cardIDs, err := c.rdb.SMembers(ctx, ColumnCardsKey(c.namespace, columnID)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read column cards: %w", err)
		}
		for _, cardID := range cardIDs {
			card, err := c.getCard(ctx, cardID)
			if IsNotFound(err) {
				continue
			}
			if err != nil {
				return nil, err
			}
			data.Cards = append(data.Cards, *card)
		}
	}

	slices.SortFunc(data.Columns, func(a, b ColumnRecord) int {
		return cmp.Or(cmp.Compare(intValue(a.Position), intValue(b.Position)), cmp.Compare(a.ID, b.ID))
	})
	columnOrder := make(map[string]int, len(data.Columns))
	for i, col := range data.Columns {
		columnOrder[col.ID] = i
	}
	slices.SortFunc(data.Cards, func(a, b CardRecord) int {
		return cmp.Or(
			cmp.Compare(columnOrder[stringValue(a.ColumnID)], columnOrder[stringValue(b.ColumnID)]),
			cmp.Compare(intValue(a.Position), intValue(b.Position)),
			cmp.Compare(a.ID, b.ID),
		)
	})

	return data, nil
}

// CreateCard creates an empty card at the bottom of a column.
// The card takes columnStatus as its status when one is given.
func (c *Client) CreateCard(ctx context.Context, columnID, columnStatus string) (*CardRecord, error) {
	if columnID == "" {
		return nil, fmt.Errorf("create card: %w: columnId", ErrMissingID)
	}
	if _, err := c.getColumn(ctx, columnID); err != nil {
		return nil, fmt.Errorf("create card in column %s: %w", columnID, err)
	}

	count, err := c.rdb.SCard(ctx, ColumnCardsKey(c.namespace, columnID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to count column cards: %w", err)
	}

	position := int(count) + 1
	column := columnID
	card := &CardRecord{
		ID:               uuid.New().String(),
		ColumnID:         &column,
		Position:         &position,
		LastModifiedDate: c.now(),
	}
	if columnStatus != "" {
		status := columnStatus
		card.Status = &status
	}

	if err := c.writeCard(ctx, card, ""); err != nil {
		return nil, err
	}
	if err := c.publishCard(ctx, EventCardCreate, card); err != nil {
		return nil, err
	}
	return card, nil
}

// UpdateCards applies a batch of column, position and status changes atomically
// and returns the updated records. Every card in the batch must exist.
func (c *Client) UpdateCards(ctx context.Context, updates []CardPosition) ([]CardRecord, error) {
	type change struct {
		card       *CardRecord
		fromColumn string
	}

	changes := make([]change, 0, len(updates))
	for _, u := range updates {
		if u.CardID == "" || u.ColumnID == "" {
			return nil, fmt.Errorf("update cards: %w: cardId and columnId", ErrMissingID)
		}
		card, err := c.getCard(ctx, u.CardID)
		if err != nil {
			return nil, fmt.Errorf("update card %s: %w", u.CardID, err)
		}

		from := stringValue(card.ColumnID)
		column, position := u.ColumnID, u.Position
		card.ColumnID = &column
		card.Position = &position
		if u.Status != nil {
			status := *u.Status
			card.Status = &status
		}
		card.LastModifiedDate = c.now()
		changes = append(changes, change{card: card, fromColumn: from})
	}

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, ch := range changes {
			c.queueCardWrite(ctx, pipe, ch.card, ch.fromColumn)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write cards to Redis: %w", err)
	}

	result := make([]CardRecord, 0, len(changes))
	for _, ch := range changes {
		if err := c.publishCard(ctx, EventCardUpdate, ch.card); err != nil {
			return nil, err
		}
		result = append(result, *ch.card)
	}
	return result, nil
}

// DeleteRecord deletes a card or a column by id. Deleting a column also
// deletes the cards it holds. Returns ErrNotFound for unknown ids.
func (c *Client) DeleteRecord(ctx context.Context, recordID string) error {
	if recordID == "" {
		return fmt.Errorf("delete record: %w: recordId", ErrMissingID)
	}

	card, err := c.getCard(ctx, recordID)
	switch {
	case err == nil:
		return c.deleteCard(ctx, card)
	case !IsNotFound(err):
		return err
	}

	column, err := c.getColumn(ctx, recordID)
	switch {
	case err == nil:
		return c.deleteColumn(ctx, column)
	case IsNotFound(err):
		return fmt.Errorf("delete record %s: %w", recordID, ErrNotFound)
	default:
		return err
	}
}

// SaveBoard writes a board record, assigning an id when it has none.
func (c *Client) SaveBoard(ctx context.Context, b BoardRecord) (*BoardRecord, error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	b.LastModifiedDate = c.now()

	key := BoardKey(c.namespace, b.ID)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, BoardToHash(&b))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write board to Redis: %w", err)
	}
	return &b, nil
}

// SaveColumn writes a column record and publishes a create or update event.
func (c *Client) SaveColumn(ctx context.Context, col ColumnRecord) (*ColumnRecord, error) {
	if col.BoardID == nil || *col.BoardID == "" {
		return nil, fmt.Errorf("save column: %w: boardId", ErrMissingID)
	}
	if col.ID == "" {
		col.ID = uuid.New().String()
	}

	eventType := EventColumnCreate
	existing, err := c.getColumn(ctx, col.ID)
	switch {
	case err == nil:
		eventType = EventColumnUpdate
	case !IsNotFound(err):
		return nil, err
	}
	col.LastModifiedDate = c.now()

	key := ColumnKey(c.namespace, col.ID)
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if existing != nil && stringValue(existing.BoardID) != *col.BoardID {
			pipe.SRem(ctx, BoardColumnsKey(c.namespace, stringValue(existing.BoardID)), col.ID)
		}
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, ColumnToHash(&col))
		pipe.SAdd(ctx, BoardColumnsKey(c.namespace, *col.BoardID), col.ID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write column to Redis: %w", err)
	}

	if err := c.publishColumn(ctx, eventType, &col); err != nil {
		return nil, err
	}
	return &col, nil
}

// SaveCard writes a card record and publishes a create or update event.
func (c *Client) SaveCard(ctx context.Context, card CardRecord) (*CardRecord, error) {
	if card.ColumnID == nil || *card.ColumnID == "" {
		return nil, fmt.Errorf("save card: %w: columnId", ErrMissingID)
	}
	if card.ID == "" {
		card.ID = uuid.New().String()
	}

	eventType := EventCardCreate
	from := ""
	existing, err := c.getCard(ctx, card.ID)
	switch {
	case err == nil:
		eventType = EventCardUpdate
		from = stringValue(existing.ColumnID)
	case !IsNotFound(err):
		return nil, err
	}
	card.LastModifiedDate = c.now()

	if err := c.writeCard(ctx, &card, from); err != nil {
		return nil, err
	}
	if err := c.publishCard(ctx, eventType, &card); err != nil {
		return nil, err
	}
	return &card, nil
}

// Event is one message received from the card or column events channel.
// Exactly one of Card or Column is set.
type Event struct {
	Channel string
	Card    *CardEvent
	Column  *ColumnEvent
}

// Subscription represents an active Pub/Sub subscription to board events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan Event
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of board events.
// The channel is closed when the subscription is closed, the context is
// cancelled or the underlying connection is torn down.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Errors returns the channel of subscription errors.
// Errors are decode failures; the offending message is skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe subscribes to card and column events. Only events published after
// the subscription is confirmed are delivered.
//
// Events are delivered on a buffered channel (size 10) to prevent blocking.
func (c *Client) Subscribe(ctx context.Context) (*Subscription, error) {
	cardChannel := CardEventsChannel(c.namespace)
	columnChannel := ColumnEventsChannel(c.namespace)
	pubsub := c.rdb.Subscribe(ctx, cardChannel, columnChannel)

	// Wait for confirmation so connection failures surface here
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to board events: %w", err)
	}

	eventsChan := make(chan Event, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				ev := Event{Channel: msg.Channel}
				var err error
				switch msg.Channel {
				case cardChannel:
					ev.Card, err = DecodeCardEvent([]byte(msg.Payload))
				case columnChannel:
					ev.Column, err = DecodeColumnEvent([]byte(msg.Payload))
				default:
					err = fmt.Errorf("unknown event channel %q", msg.Channel)
				}

				if err != nil {
					select {
					case errorsChan <- err:
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- ev:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, redis.Nil)
}

func (c *Client) getColumn(ctx context.Context, columnID string) (*ColumnRecord, error) {
	hash, err := c.rdb.HGetAll(ctx, ColumnKey(c.namespace, columnID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read column from Redis: %w", err)
	}
	if len(hash) == 0 {
		return nil, fmt.Errorf("column %s: %w", columnID, ErrNotFound)
	}
	column, err := HashToColumn(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize column: %w", err)
	}
	return column, nil
}

func (c *Client) getCard(ctx context.Context, cardID string) (*CardRecord, error) {
	hash, err := c.rdb.HGetAll(ctx, CardKey(c.namespace, cardID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read card from Redis: %w", err)
	}
	if len(hash) == 0 {
		return nil, fmt.Errorf("card %s: %w", cardID, ErrNotFound)
	}
	card, err := HashToCard(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize card: %w", err)
	}
	return card, nil
}

func (c *Client) writeCard(ctx context.Context, card *CardRecord, fromColumn string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		c.queueCardWrite(ctx, pipe, card, fromColumn)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write card to Redis: %w", err)
	}
	return nil
}

// queueCardWrite replaces the card hash and moves its column membership.
func (c *Client) queueCardWrite(ctx context.Context, pipe redis.Pipeliner, card *CardRecord, fromColumn string) {
	to := stringValue(card.ColumnID)
	if fromColumn != "" && fromColumn != to {
		pipe.SRem(ctx, ColumnCardsKey(c.namespace, fromColumn), card.ID)
	}
	key := CardKey(c.namespace, card.ID)
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, CardToHash(card))
	pipe.SAdd(ctx, ColumnCardsKey(c.namespace, to), card.ID)
}

func (c *Client) deleteCard(ctx context.Context, card *CardRecord) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, CardKey(c.namespace, card.ID))
		pipe.SRem(ctx, ColumnCardsKey(c.namespace, stringValue(card.ColumnID)), card.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete card from Redis: %w", err)
	}
	card.LastModifiedDate = c.now()
	return c.publishCard(ctx, EventCardDelete, card)
}

func (c *Client) deleteColumn(ctx context.Context, column *ColumnRecord) error {
	cardsKey := ColumnCardsKey(c.namespace, column.ID)
	cardIDs, err := c.rdb.SMembers(ctx, cardsKey).Result()
	if err != nil {
		return fmt.Errorf("failed to read column cards: %w", err)
	}

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, cardID := range cardIDs {
			pipe.Del(ctx, CardKey(c.namespace, cardID))
		}
		pipe.Del(ctx, cardsKey)
		pipe.Del(ctx, ColumnKey(c.namespace, column.ID))
		pipe.SRem(ctx, BoardColumnsKey(c.namespace, stringValue(column.BoardID)), column.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete column from Redis: %w", err)
	}
	column.LastModifiedDate = c.now()
	return c.publishColumn(ctx, EventColumnDelete, column)
}

func (c *Client) publishCard(ctx context.Context, eventType string, card *CardRecord) error {
	payload, err := EncodeCardEvent(CardEventFromRecord(eventType, *card))
	if err != nil {
		return err
	}
	if err := c.rdb.Publish(ctx, CardEventsChannel(c.namespace), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish card event: %w", err)
	}
	return nil
}

func (c *Client) publishColumn(ctx context.Context, eventType string, column *ColumnRecord) error {
	payload, err := EncodeColumnEvent(ColumnEventFromRecord(eventType, *column))
	if err != nil {
		return err
	}
	if err := c.rdb.Publish(ctx, ColumnEventsChannel(c.namespace), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish column event: %w", err)
	}
	return nil
}

func (c *Client) now() string {
	return time.UnixMilli(nextTimestamp()).UTC().Format(TimestampLayout)
}

var lastTimestamp int64

// nextTimestamp returns a strictly increasing Unix millisecond clock so two
// writes never share a LastModifiedDate.
func nextTimestamp() int64 {
	for {
		now := time.Now().UnixMilli()
		last := atomic.LoadInt64(&lastTimestamp)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastTimestamp, last, now) {
			return now
		}
	}
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intValue(i *int) int {
	if i == nil {
		return NoPosition
	}
	return *i
}
