package commands

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/dyluth/kanban/internal/config"
	"github.com/dyluth/kanban/internal/mapper"
	"github.com/dyluth/kanban/internal/printer"
	"github.com/dyluth/kanban/internal/queue"
	"github.com/dyluth/kanban/internal/service"
	"github.com/dyluth/kanban/internal/store"
	"github.com/dyluth/kanban/internal/subscriber"
	"github.com/dyluth/kanban/pkg/board"
)

// session is the wired object graph shared by the commands.
type session struct {
	cfg    *config.KanbanConfig
	client *board.Client
	mapper *mapper.Mapper
	queue  *queue.Queue
	store  *store.Store
	logger *log.Entry
}

func openSession(ctx context.Context, cfg *config.KanbanConfig) (*session, error) {
	opts, err := cfg.RedisOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client, err := board.NewClient(opts, cfg.Redis.Namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create board client: %w", err)
	}

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, printer.ErrorWithContext(
			"Redis connection failed",
			fmt.Sprintf("Could not connect to Redis at %s", cfg.Redis.URL),
			map[string]string{"Namespace": cfg.Redis.Namespace},
			[]string{
				"Start a local Redis:\n  docker run -d -p 6379:6379 redis:7-alpine",
				"Point kanban at another server:\n  kanban --redis-url redis://<host>:6379/0 ...",
			},
		)
	}

	logger := log.NewEntry(log.StandardLogger())
	m := mapper.New(cfg.Links.Base)
	q := queue.New(logger)
	svc := service.New(client, m, q, logger)

	return &session{
		cfg:    cfg,
		client: client,
		mapper: m,
		queue:  q,
		store:  store.New(svc, logger),
		logger: logger,
	}, nil
}

// Close waits for queued writes to finish and closes the Redis connection.
func (s *session) Close() {
	s.queue.WaitIdle()
	s.client.Close()
}

// loadBoard initializes boardID in the store, turning a missing board into a
// printer error.
func (s *session) loadBoard(ctx context.Context, boardID string) error {
	err := s.store.Initialize(ctx, boardID)
	if err == nil {
		return nil
	}
	if board.IsNotFound(err) {
		return printer.ErrorWithContext(
			fmt.Sprintf("board '%s' not found", boardID),
			"The board does not exist in this namespace.",
			map[string]string{"Namespace": s.cfg.Redis.Namespace},
			[]string{"Create a sample board:\n  kanban seed", "Check the namespace:\n  kanban --namespace <name> ..."},
		)
	}
	return fmt.Errorf("failed to load board %s: %w", boardID, err)
}

func (s *session) subscriber(boardID string, notifier subscriber.Notifier) *subscriber.Subscriber {
	cfg := s.cfg.SubscriberOptions()
	cfg.Mapper = s.mapper
	cfg.Logger = s.logger
	return subscriber.New(boardID, s.store, subscriber.FromClient(s.client), notifier, cfg)
}

// resolveBoard returns the --board flag value or the first configured board.
func resolveBoard(cfg *config.KanbanConfig, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if len(cfg.Boards) > 0 {
		return cfg.Boards[0], nil
	}
	return "", printer.Error(
		"no board selected",
		"No --board flag was given and kanban.yml lists no boards.",
		[]string{"Pass a board id:\n  --board <id>", "Add it to kanban.yml:\n  boards: [\"<id>\"]"},
	)
}

// notifiers fans a toast out to several notifiers.
type notifiers []subscriber.Notifier

func (n notifiers) Toast(title, message, variant string) {
	for _, notifier := range n {
		notifier.Toast(title, message, variant)
	}
}
