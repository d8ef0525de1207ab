package gohunspell

import (
	"log/slog"

	"github.com/vpetlovyi/gohunspell/frame"
)

// CheckFunc answers whether word is spelled correctly.
type CheckFunc = func(word string) bool

// CheckerSink receives the spell-check callback destined for the host's text-input layer.
// Attaching with enabled=false replaces any active callback; implementations must never block.
type CheckerSink interface {
	Attach(locale string, enabled bool, check CheckFunc)
}

// nullSink is chosen when the process has no interactive text surface. Attaching is not an
// error there, just pointless.
type nullSink struct {
	log *slog.Logger
}

func (s nullSink) Attach(locale string, enabled bool, _ CheckFunc) {
	s.log.Debug("no interactive host, spell-check provider not installed", "locale", locale, "enabled", enabled)
}

func defaultSink(log *slog.Logger) CheckerSink {
	if frame.Available() {
		return frame.Sink{}
	}
	return nullSink{log: log}
}
