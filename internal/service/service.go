// Package service wraps the remote board endpoints with entity mapping and
// request serialization.
package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/dyluth/kanban/internal/mapper"
	"github.com/dyluth/kanban/internal/queue"
	"github.com/dyluth/kanban/pkg/board"
)

// Remote is the fetch and mutation boundary. *board.Client implements it.
type Remote interface {
	FetchBoardData(ctx context.Context, boardID string) (*board.BoardData, error)
	CreateCard(ctx context.Context, columnID, columnStatus string) (*board.CardRecord, error)
	UpdateCards(ctx context.Context, cards []board.CardPosition) ([]board.CardRecord, error)
	DeleteRecord(ctx context.Context, recordID string) error
}

// Service maps remote records and routes mutations through a single queue.
// Reads bypass the queue. Creates and position updates are user-initiated and
// jump ahead of background work.
type Service struct {
	remote Remote
	mapper *mapper.Mapper
	queue  *queue.Queue
	logger *log.Entry
}

// New creates a service. Share one queue between everything that mutates the
// same remote.
func New(remote Remote, m *mapper.Mapper, q *queue.Queue, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Service{
		remote: remote,
		mapper: m,
		queue:  q,
		logger: logger.WithField("component", "service"),
	}
}

// FetchBoardData fetches and maps one board.
func (s *Service) FetchBoardData(ctx context.Context, boardID string) (mapper.Snapshot, error) {
	data, err := s.remote.FetchBoardData(ctx, boardID)
	if err != nil {
		return mapper.Snapshot{}, fmt.Errorf("unable to fetch data for board %s: %w", boardID, err)
	}
	snap := s.mapper.MapBoardData(data)
	s.logger.WithFields(log.Fields{
		"board":   boardID,
		"columns": len(snap.Columns),
		"cards":   len(snap.Cards),
	}).Debug("board fetched")
	return snap, nil
}

// QueueCreateCard creates a card at the bottom of a column.
func (s *Service) QueueCreateCard(ctx context.Context, columnID, columnStatus string) (board.Card, error) {
	return queue.Do(ctx, s.queue, true, func(ctx context.Context) (board.Card, error) {
		record, err := s.remote.CreateCard(ctx, columnID, columnStatus)
		if err != nil {
			return board.Card{}, fmt.Errorf("unable to add card to column %s: %w", columnID, err)
		}
		return s.mapper.MapCard(*record), nil
	})
}

// QueueUpdateCards persists a batch of card positions and returns the
// server-confirmed cards.
func (s *Service) QueueUpdateCards(ctx context.Context, cards []board.CardPosition) ([]board.Card, error) {
	return queue.Do(ctx, s.queue, true, func(ctx context.Context) ([]board.Card, error) {
		records, err := s.remote.UpdateCards(ctx, cards)
		if err != nil {
			return nil, fmt.Errorf("unable to update card positions: %w", err)
		}
		return s.mapper.MapCards(records), nil
	})
}

// QueueDeleteRecord deletes a card or column record.
func (s *Service) QueueDeleteRecord(ctx context.Context, recordID string) error {
	_, err := queue.Do(ctx, s.queue, false, func(ctx context.Context) (struct{}, error) {
		if err := s.remote.DeleteRecord(ctx, recordID); err != nil {
			return struct{}{}, fmt.Errorf("unable to delete record %s: %w", recordID, err)
		}
		return struct{}{}, nil
	})
	return err
}
