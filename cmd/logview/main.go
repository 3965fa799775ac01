package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mimecast/logview/internal/constants"
	"github.com/mimecast/logview/internal/logger"
	"github.com/mimecast/logview/internal/tasks"
	"github.com/mimecast/logview/internal/viewport"
)

func main() {
	ctx, stop := rootContext()
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.FatalExit(err)
	}
}

// rootContext returns a context cancelled on SIGINT or SIGTERM; serve
// returns once it is cancelled. Spawned background tasks run on their
// own contexts, so this cancellation does not interrupt them.
func rootContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// readAllStdin buffers stdin fully - the only option for a MemoryBackend,
// whose whole point is an immutable byte slice shared across readers
// (internal/source.MemoryBackend's doc comment).
func readAllStdin() ([]byte, error) {
	return io.ReadAll(os.Stdin)
}

// terminalSize reports the initial viewport size. Real terminal
// dimensions are the external UI collaborator's job (§1 out of scope
// here); COLUMNS/LINES, when a caller sets them, let this entrypoint
// size the initial page without guessing.
func terminalSize() (width, height int) {
	width, height = 80, 24
	if v, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && v > 0 {
		width = v
	}
	if v, err := strconv.Atoi(os.Getenv("LINES")); err == nil && v > 0 {
		height = v
	}
	return width, height
}

// serve drains the task runtime's signals until ctx is cancelled. The
// actual key-handling/drawing loop lives in the external UI layer (§1);
// this is the minimum the core contributes to that loop's contract (§5:
// "a single Drain call per UI tick").
func serve(ctx context.Context, rt *tasks.Runtime, model *viewport.Model) error {
	logger.Info("viewport ready", len(model.Cache()), "lines cached")

	rt.Listen(func(s tasks.Signal) {
		switch s.Kind {
		case tasks.SignalProgress:
			logger.Debug("task progress", s.TaskID, s.Progress)
		case tasks.SignalComplete:
			if s.Err != nil {
				logger.Warn("task failed", s.TaskID, s.Err)
				return
			}
			logger.Debug("task complete", s.TaskID)
		}
	})

	ticker := time.NewTicker(constants.UITickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rt.Drain()
		}
	}
}
