package builder

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/futig/traffic-law-assistant/internal/usecase/assistant"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

// App is the assistant HTTP service
type App struct {
	server  *http.Server
	closers *closers
	logger  *zap.Logger
}

// Run serves until ctx is done or the listener fails, then releases every resource.
func (a *App) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		a.logger.Error("HTTP server failed", zap.Error(err))
		a.release()
		return err
	case <-ctx.Done():
		a.logger.Info("Shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	if err != nil {
		a.logger.Error("HTTP server shutdown incomplete", zap.Error(err))
	}
	a.release()
	return err
}

func (a *App) release() {
	a.closers.Close()
	a.logger.Info("Assistant stopped")
	_ = a.logger.Sync()
}

// Indexer is the assistant as seen by the indexing CLI
type Indexer struct {
	Usecase    *assistant.Usecase
	CorpusPath string
	Logger     *zap.Logger
	closers    *closers
}

// Close releases the vector store connection
func (i *Indexer) Close() {
	i.closers.Close()
	_ = i.Logger.Sync()
}
