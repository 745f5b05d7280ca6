// Package api exposes the board store over HTTP for presentation clients.
//
// Reads return the current board state, writes call the store verbs, and
// /stream pushes a fresh board snapshot after every change plus any toast
// notices as server-sent events.
package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/dyluth/kanban/internal/store"
	"github.com/dyluth/kanban/pkg/board"
)

const maxBodySize = 64 << 10

// Store is the board store surface the handlers use. *store.Store implements it.
type Store interface {
	Board(boardID string) (board.BoardState, bool)
	Initialize(ctx context.Context, boardID string) error
	MoveCard(ctx context.Context, boardID string, drop board.Drop) error
	CreateCard(ctx context.Context, boardID, columnID, columnStatus string) (board.Card, error)
	RemoveCard(ctx context.Context, boardID, cardID string) error
	Subscribe(l store.Listener) store.ListenerID
	Unsubscribe(id store.ListenerID)
}

// Server holds the handlers and the stream fan-out.
type Server struct {
	store    Store
	broker   *updateBroker
	logger   *log.Entry
	listener store.ListenerID
}

// New creates a server that follows st.
func New(st Store, logger *log.Entry) *Server {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	s := &Server{
		store:  st,
		broker: newUpdateBroker(),
		logger: logger.WithField("component", "api"),
	}
	s.listener = st.Subscribe(func(board.RootState) { s.broker.notify() })
	return s
}

// Close stops following the store. Open streams end when their requests do.
func (s *Server) Close() {
	s.store.Unsubscribe(s.listener)
}

// Toast forwards a notice to every open stream.
func (s *Server) Toast(title, message, variant string) {
	s.broker.toast(toastFrame{Title: title, Message: message, Variant: variant})
}

// Register wires the routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", healthz)
	g := e.Group("/api/boards/:boardId")
	g.GET("", s.getBoard)
	g.GET("/stream", s.streamBoard)
	g.POST("/refresh", s.refreshBoard)
	g.POST("/moves", s.postMove)
	g.POST("/cards", s.postCard)
	g.DELETE("/cards/:cardId", s.deleteCard)
}

type errorResponse struct {
	Error string `json:"error"`
}

type createCardRequest struct {
	ColumnID     string `json:"columnId"`
	ColumnStatus string `json:"columnStatus,omitempty"`
}

func healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getBoard(c echo.Context) error {
	bs, ok := s.store.Board(c.Param("boardId"))
	if !ok {
		return c.JSON(http.StatusNotFound, errorResponse{Error: store.ErrBoardNotFound.Error()})
	}
	return c.JSON(http.StatusOK, bs)
}

func (s *Server) refreshBoard(c echo.Context) error {
	boardID := c.Param("boardId")
	if err := s.store.Initialize(c.Request().Context(), boardID); err != nil {
		return s.fail(c, err)
	}
	return s.getBoard(c)
}

func (s *Server) postMove(c echo.Context) error {
	boardID := c.Param("boardId")
	var drop board.Drop
	if err := decode(c, &drop); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
	}
	if err := s.store.MoveCard(detach(c), boardID, drop); err != nil {
		return s.fail(c, err)
	}
	return s.getBoard(c)
}

func (s *Server) postCard(c echo.Context) error {
	boardID := c.Param("boardId")
	var req createCardRequest
	if err := decode(c, &req); err != nil || req.ColumnID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "columnId is required"})
	}
	card, err := s.store.CreateCard(detach(c), boardID, req.ColumnID, req.ColumnStatus)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, card)
}

func (s *Server) deleteCard(c echo.Context) error {
	if err := s.store.RemoveCard(detach(c), c.Param("boardId"), c.Param("cardId")); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// fail maps store errors to status codes.
func (s *Server) fail(c echo.Context, err error) error {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, board.ErrInvalidDrop), errors.Is(err, board.ErrMissingID):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrBoardNotFound), board.IsNotFound(err):
		status = http.StatusNotFound
	}
	if status == http.StatusBadGateway {
		s.logger.WithError(err).WithField("path", c.Path()).Warn("request failed")
	}
	return c.JSON(status, errorResponse{Error: err.Error()})
}

// detach keeps request values but not its cancellation. A client that hangs
// up after a write was queued must not roll back a write the server keeps.
func detach(c echo.Context) context.Context {
	return context.WithoutCancel(c.Request().Context())
}

func decode(c echo.Context, v any) error {
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(c.Request().Body, maxBodySize))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// streamBoard writes the board as an SSE data frame on connect and after
// every store change that alters it. Toasts are sent as "toast" events.
func (s *Server) streamBoard(c echo.Context) error {
	boardID := c.Param("boardId")

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.Header().Set("X-Accel-Buffering", "no")
	flusher, ok := res.Writer.(http.Flusher)
	if !ok {
		return c.String(http.StatusInternalServerError, "stream unsupported")
	}

	ctx := c.Request().Context()
	sub := s.broker.subscribe()
	defer s.broker.unsubscribe(sub)

	res.WriteHeader(http.StatusOK)
	flusher.Flush()

	var last []byte
	sendBoard := func() error {
		bs, ok := s.store.Board(boardID)
		if !ok {
			return nil
		}
		data, err := sonic.ConfigStd.Marshal(bs)
		if err != nil {
			return err
		}
		if bytes.Equal(data, last) {
			return nil
		}
		last = data
		return writeFrame(res, flusher, "", data)
	}

	if err := sendBoard(); err != nil {
		s.logger.WithError(err).Warn("stream write failed")
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.wake:
			if err := sendBoard(); err != nil {
				s.logger.WithError(err).Warn("stream write failed")
				return nil
			}
		case t := <-sub.toasts:
			data, err := sonic.ConfigStd.Marshal(t)
			if err != nil {
				return err
			}
			if err := writeFrame(res, flusher, "toast", data); err != nil {
				s.logger.WithError(err).Warn("stream write failed")
				return nil
			}
		}
	}
}

func writeFrame(w io.Writer, f http.Flusher, event string, data []byte) error {
	var buf bytes.Buffer
	if event != "" {
		buf.WriteString("event: ")
		buf.WriteString(event)
		buf.WriteByte('\n')
	}
	buf.WriteString("data: ")
	buf.Write(data)
	buf.WriteString("\n\n")
	if _, err := w.Write(buf.Bytes()); err != nil {
		return err
	}
	f.Flush()
	return nil
}
