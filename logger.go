package saidx

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger is the structured logger of builds, opens and queries. Records
// use stable keys such as stage, artifact, k and pattern_length.
type Logger struct {
	*slog.Logger
}

// NewLogger returns a Logger writing to handler, or Info-level text on
// stderr if handler is nil.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		return NewTextLogger(slog.LevelInfo)
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger logs JSON records at level and above to stderr.
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewTextLogger logs key=value records at level and above to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NoopLogger discards everything.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithK adds the k-mer length to the logger.
func (l *Logger) WithK(k int) *Logger { return &Logger{Logger: l.With("k", k)} }

// LogStage logs the end of a build stage.
func (l *Logger) LogStage(ctx context.Context, stage Stage, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "stage failed",
			"stage", stage.String(),
			"elapsed", elapsed,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "stage completed",
			"stage", stage.String(),
			"elapsed", elapsed,
		)
	}
}

// LogArtifact logs an artifact write or read.
func (l *Logger) LogArtifact(ctx context.Context, name string, size int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "artifact failed",
			"artifact", name,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "artifact written",
			"artifact", name,
			"bytes", size,
		)
	}
}

// LogCorpus logs the normalization summary of a build.
func (l *Logger) LogCorpus(ctx context.Context, s BuildStats) {
	if s.Discarded > 0 {
		l.WarnContext(ctx, "corpus built with discarded entries",
			"sequences", s.Sequences,
			"discarded", s.Discarded,
			"replaced", s.Replaced,
			"clipped", s.Clipped,
			"text_length", s.TextLength,
		)
	} else {
		l.InfoContext(ctx, "corpus built",
			"sequences", s.Sequences,
			"replaced", s.Replaced,
			"clipped", s.Clipped,
			"text_length", s.TextLength,
		)
	}
}

// LogSearch logs a query.
func (l *Logger) LogSearch(ctx context.Context, patternLen int, count int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"pattern_length", patternLen,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"pattern_length", patternLen,
			"count", count,
		)
	}
}

// LogOpen logs an index load.
func (l *Logger) LogOpen(ctx context.Context, k int, large bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "index opened",
			"k", k,
			"large", large,
		)
	}
}
