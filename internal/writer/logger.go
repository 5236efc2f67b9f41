package writer

import (
	"context"
	"log/slog"
	"os"
)

// teeHandler duplicates every record to a console handler and a file
// handler. The console gets human-readable text, the run log gets JSON so
// it can be grepped and post-processed.
type teeHandler struct {
	console slog.Handler
	file    slog.Handler
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.console.Enabled(ctx, level) || h.file.Enabled(ctx, level)
}

func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.console.Enabled(ctx, r.Level) {
		if err := h.console.Handle(ctx, r); err != nil {
			return err
		}
	}
	if h.file.Enabled(ctx, r.Level) {
		return h.file.Handle(ctx, r)
	}
	return nil
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &teeHandler{
		console: h.console.WithAttrs(attrs),
		file:    h.file.WithAttrs(attrs),
	}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return &teeHandler{
		console: h.console.WithGroup(name),
		file:    h.file.WithGroup(name),
	}
}

// SetupLogger builds the run logger: text at logLevel on stdout, JSON at
// Debug in the session's run.log. The caller owns closing the returned file.
func SetupLogger(session *Session, logLevel slog.Level) (*slog.Logger, *os.File, error) {
	logFile, err := os.OpenFile(session.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}

	handler := &teeHandler{
		console: slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}),
		// The file always captures debug detail regardless of console level
		file: slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}

	return slog.New(handler), logFile, nil
}
