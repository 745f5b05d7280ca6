package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dyluth/kanban/internal/api"
	"github.com/dyluth/kanban/internal/printer"
	"github.com/dyluth/kanban/internal/subscriber"
)

var (
	serveBoards []string
	serveListen string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve boards over HTTP and Server-Sent Events",
	Long: `Load one or more boards, keep them in sync with realtime events and expose
them over HTTP.

Endpoints:
  GET    /healthz
  GET    /api/boards/:boardId
  GET    /api/boards/:boardId/stream   (text/event-stream)
  POST   /api/boards/:boardId/refresh
  POST   /api/boards/:boardId/moves
  POST   /api/boards/:boardId/cards
  DELETE /api/boards/:boardId/cards/:cardId

Examples:
  # Serve the boards listed in kanban.yml
  kanban serve

  # Serve a specific board on another port
  kanban serve --board Board_1a2b --listen :9000`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringSliceVarP(&serveBoards, "board", "b", nil, "Board id to serve (repeatable, defaults to boards in kanban.yml)")
	serveCmd.Flags().StringVarP(&serveListen, "listen", "l", "", "Listen address, overrides server.listen")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	boards := serveBoards
	if len(boards) == 0 {
		boards = cfg.Boards
	}
	if len(boards) == 0 {
		return printer.Error(
			"no boards to serve",
			"No --board flag was given and kanban.yml lists no boards.",
			[]string{"Pass a board id:\n  kanban serve --board <id>", "Create a sample board:\n  kanban seed"},
		)
	}
	listen := cfg.Server.Listen
	if serveListen != "" {
		listen = serveListen
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	srv := api.New(sess.store, sess.logger)
	defer srv.Close()
	toasts := notifiers{printer.NewToaster(os.Stderr), srv}

	subs := make([]*subscriber.Subscriber, 0, len(boards))
	for _, boardID := range boards {
		if err := sess.loadBoard(ctx, boardID); err != nil {
			return err
		}
		sub := sess.subscriber(boardID, toasts)
		subs = append(subs, sub)
		go func(boardID string) {
			if err := sub.Run(ctx); err != nil {
				sess.logger.WithError(err).WithField("board", boardID).Error("Realtime subscription ended")
				printer.Warning("Board %s no longer receives realtime updates; restart to reconnect\n", boardID)
			}
		}(boardID)
	}
	defer func() {
		for _, sub := range subs {
			sub.Close()
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	srv.Register(e)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(listen)
	}()
	printer.Success("Serving %d board(s) on %s\n", len(boards), listen)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
