// Package frame bridges dictionary sessions to the process's interactive text-input layer.
//
// A GUI embedder that can host interactive views installs itself as the Host once at startup.
// Processes without such a surface never do, so attaching a spell-check provider there is a
// logged no-op rather than an error.
package frame

import (
	"log/slog"
	"sync"
)

// Provider is handed to the text-input layer, which consults SpellCheck once per word as the
// user types.
type Provider struct {
	SpellCheck func(word string) bool
}

// Host is the text-input layer's registration point for spell-check providers.
type Host interface {
	SetSpellCheckProvider(locale string, enabled bool, p Provider)
}

var (
	mu   sync.RWMutex
	host Host
)

// SetHost registers the process's text-input layer. Passing nil uninstalls it.
func SetHost(h Host) {
	mu.Lock()
	host = h
	mu.Unlock()
}

// Available reports whether a text-input layer has registered itself.
func Available() bool {
	mu.RLock()
	defer mu.RUnlock()
	return host != nil
}

// Sink forwards spell-check callbacks into the registered Host.
type Sink struct{}

func (Sink) Attach(locale string, enabled bool, check func(word string) bool) {
	mu.RLock()
	h := host
	mu.RUnlock()
	if h == nil {
		slog.Debug("frame.Sink.Attach without a registered host", "locale", locale, "enabled", enabled)
		return
	}
	h.SetSpellCheckProvider(locale, enabled, Provider{SpellCheck: check})
}
