// Package narrator defines the speech contract consumed by the guidance
// core. Speech synthesis itself lives outside this service; the core only
// hands text off, fire-and-forget.
package narrator

import (
	"context"
	"log/slog"
)

// Narrator speaks text to the visitor in the given language.
type Narrator interface {
	Speak(ctx context.Context, text, language string)
}

// LogNarrator writes narrations to the log instead of an audio device.
// It stands in wherever no speech backend is wired, including tests.
type LogNarrator struct {
	log *slog.Logger
}

// NewLogNarrator creates a narrator that logs every narration.
func NewLogNarrator(log *slog.Logger) *LogNarrator {
	return &LogNarrator{log: log}
}

// Speak logs the narrated text with its language code.
func (ln *LogNarrator) Speak(ctx context.Context, text, language string) {
	ln.log.InfoContext(ctx, "Narrating", "language", language, "text", text)
}
