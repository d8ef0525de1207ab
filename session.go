package gohunspell

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/tetratelabs/wazero"
)

var (
	// ErrBadKey is returned by LoadDictionary for an empty or already registered key.
	ErrBadKey = errors.New("dictionary key is empty or already registered")
	// ErrNotFound is returned when an operation references an unregistered dictionary key.
	ErrNotFound = errors.New("dictionary key is not registered")
)

// speller is what the dictionary table needs from an engine instance.
type speller interface {
	Spell(ctx context.Context, word string) (bool, error)
	Suggest(ctx context.Context, word string) ([]string, error)
	AddWord(ctx context.Context, word string) error
	Close(ctx context.Context) error
}

type dictionary struct {
	engine  speller
	uptime  time.Duration
	dispose func(ctx context.Context) error
}

type SessionConfig struct {
	// Sink receives the per-word spell-check callback meant for the host's text-input layer.
	// Defaults to the process's registered frame host, or a logging no-op without one.
	Sink CheckerSink
	// Stderr and Stdout redirect Hunspell's output and the session's own diagnostics.
	// If left nil these are set to os.Stderr and os.Stdout. Set to io.Discard to turn off.
	Stderr, Stdout io.Writer
	// WASMCache may be set to reuse engine compilation across sessions.
	WASMCache wazero.CompilationCache
	// Verbose turns on debug diagnostics from the start. See Session.SetVerbose.
	Verbose bool
}

// Session owns a table of loaded dictionaries, the engine runtime they live in, and the
// selection state driving the host's spell-check callback. All mutation goes through its
// methods; there is no package-level state, so independent sessions can coexist.
//
// A Session is NOT safe for concurrent use. Wrap it in a Checker when other goroutines need to
// query it.
type Session struct {
	cfg   SessionConfig
	level *slog.LevelVar
	log   *slog.Logger
	sink  CheckerSink

	engine *WASMModule
	mounts *mounter

	dicts      map[string]*dictionary
	selected   string
	selectedAt time.Time
	checkAll   bool

	now       func() time.Time
	newEngine func(ctx context.Context, affPath, dicPath string) (speller, error)
}

func NewSession(cfg SessionConfig) *Session {
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	if cfg.Verbose {
		level.Set(slog.LevelDebug)
	}

	s := &Session{
		cfg:   cfg,
		level: level,
		log:   slog.New(slog.NewTextHandler(cfg.Stderr, &slog.HandlerOptions{Level: level})),
		dicts: make(map[string]*dictionary),
		now:   time.Now,
	}
	s.sink = cfg.Sink
	if s.sink == nil {
		s.sink = defaultSink(s.log)
	}
	s.newEngine = func(ctx context.Context, affPath, dicPath string) (speller, error) {
		return NewHunspell(ctx, s.engine, affPath, dicPath)
	}
	return s
}

// SetVerbose toggles debug diagnostics at runtime.
func (s *Session) SetVerbose(v bool) {
	if v {
		s.level.Set(slog.LevelDebug)
		return
	}
	s.level.Set(slog.LevelInfo)
}

// Initialize brings up the engine runtime. It is idempotent: once the engine is up, repeat
// calls return immediately. A load failure is surfaced to the caller as is, with no retry.
func (s *Session) Initialize(ctx context.Context) error {
	if s.engine != nil {
		return nil
	}
	logPrefix := "Session.Initialize"
	w, err := NewWASM(ctx, WASMConfig{Stderr: s.cfg.Stderr, Stdout: s.cfg.Stdout, WASMCache: s.cfg.WASMCache})
	if err != nil {
		return fmt.Errorf(logPrefix+" %w", err)
	}
	s.engine = w
	s.mounts = newMounter(w.root, s.log)
	return nil
}

// LoadDictionary mounts src into the engine and registers a dictionary under key. Keys are
// caller-chosen opaque strings such as "en-us" and must be unique for the session's lifetime.
func (s *Session) LoadDictionary(ctx context.Context, key string, src Source) error {
	logPrefix := "Session.LoadDictionary"
	if key == "" {
		return fmt.Errorf(logPrefix+" %w", ErrBadKey)
	}
	if _, ok := s.dicts[key]; ok {
		return fmt.Errorf(logPrefix+" %q %w", key, ErrBadKey)
	}
	if src == nil {
		return fmt.Errorf(logPrefix+" nil source %w", ErrInvalidSource)
	}
	if err := src.validate(); err != nil {
		return fmt.Errorf(logPrefix+" %w", err)
	}
	if err := s.Initialize(ctx); err != nil {
		return fmt.Errorf(logPrefix+" %w", err)
	}

	var guestDic, guestAff string
	var release func()
	var err error
	switch src := src.(type) {
	case FileSource:
		guestDic, guestAff, release, err = s.mounts.mountFiles(src.Dic, src.Aff)
	case BufferSource:
		guestDic, guestAff, release, err = s.mounts.mountBuffers(src.Dic, src.Aff)
	default:
		return fmt.Errorf(logPrefix+" %T %w", src, ErrInvalidSource)
	}
	if err != nil {
		return fmt.Errorf(logPrefix+" %w", err)
	}

	engine, err := s.newEngine(ctx, guestAff, guestDic)
	if err != nil {
		// Unwind the mounts instead of leaking them on a failed instance.
		release()
		return fmt.Errorf(logPrefix+" %w", err)
	}

	s.dicts[key] = &dictionary{
		engine: engine,
		dispose: func(ctx context.Context) error {
			err := engine.Close(ctx)
			release()
			return err
		},
	}
	s.log.Debug("dictionary loaded", "key", key, "dic", guestDic, "aff", guestAff)
	return nil
}

// UnloadDictionary disposes the dictionary under key. An unregistered key is a warning, not an
// error. Unloading the selected dictionary first hands the sink a callback that never flags a
// word, since the host keeps invoking whatever provider it holds.
func (s *Session) UnloadDictionary(ctx context.Context, key string) error {
	logPrefix := "Session.UnloadDictionary"
	entry, ok := s.dicts[key]
	if !ok {
		s.log.Warn("unload of unregistered dictionary", "key", key)
		return nil
	}
	if s.selected == key {
		s.flushUptime()
		s.selected = ""
		s.sink.Attach(key, false, func(string) bool { return true })
	}
	err := entry.dispose(ctx)
	delete(s.dicts, key)
	if err != nil {
		return fmt.Errorf(logPrefix+" %q %w", key, err)
	}
	s.log.Debug("dictionary unloaded", "key", key)
	return nil
}

// SwitchDictionary selects key as the primary dictionary and installs the spell-check callback
// into the sink. With checkAllDictionaries, a word the primary rejects is still accepted if any
// other registered dictionary accepts it; a word is flagged wrong only when every dictionary
// rejects it.
func (s *Session) SwitchDictionary(key string, checkAllDictionaries bool) error {
	logPrefix := "Session.SwitchDictionary"
	if _, ok := s.dicts[key]; !ok {
		return fmt.Errorf(logPrefix+" %q %w", key, ErrNotFound)
	}
	s.flushUptime()
	s.selected = key
	s.selectedAt = s.now()
	s.checkAll = checkAllDictionaries

	s.sink.Attach(key, true, func(word string) bool {
		ok, err := s.CheckWord(context.Background(), word)
		if err != nil {
			// Fail open per keystroke rather than flag every word on a broken engine.
			s.log.Error("spell-check callback failed", "key", key, "err", err)
			return true
		}
		return ok
	})
	s.log.Debug("dictionary selected", "key", key, "checkAll", checkAllDictionaries)
	return nil
}

// CheckWord reports whether word is accepted, consulting the selected dictionary first and,
// when the session was switched with checkAllDictionaries, every other dictionary until one
// accepts.
func (s *Session) CheckWord(ctx context.Context, word string) (bool, error) {
	logPrefix := "Session.CheckWord"
	entry, ok := s.dicts[s.selected]
	if s.selected == "" || !ok {
		return false, fmt.Errorf(logPrefix+" no dictionary selected %w", ErrNotFound)
	}
	correct, err := entry.engine.Spell(ctx, word)
	if err != nil {
		return false, fmt.Errorf(logPrefix+" %w", err)
	}
	if correct || !s.checkAll || len(s.dicts) < 2 {
		return correct, nil
	}
	for key, d := range s.dicts {
		if key == s.selected {
			continue
		}
		correct, err := d.engine.Spell(ctx, word)
		if err != nil {
			return false, fmt.Errorf(logPrefix+" %q %w", key, err)
		}
		if correct {
			return true, nil
		}
	}
	return false, nil
}

// Suggest returns the selected dictionary's ranked suggestions for text in the engine's order.
// With no dictionary selected it returns nothing rather than failing, so callers can wire it
// straight into UI surfaces.
func (s *Session) Suggest(ctx context.Context, text string) []string {
	entry, ok := s.dicts[s.selected]
	if s.selected == "" || !ok {
		s.log.Debug("suggestion requested with no dictionary selected")
		return nil
	}
	suggestions, err := entry.engine.Suggest(ctx, text)
	if err != nil {
		s.log.Error("suggest failed", "key", s.selected, "err", err)
		return nil
	}
	return suggestions
}

// AddWord adds word to the selected dictionary's runtime word list. With no dictionary
// selected it is a logged no-op.
func (s *Session) AddWord(ctx context.Context, word string) error {
	entry, ok := s.dicts[s.selected]
	if s.selected == "" || !ok {
		s.log.Warn("AddWord with no dictionary selected", "word", word)
		return nil
	}
	if err := entry.engine.AddWord(ctx, word); err != nil {
		return fmt.Errorf("Session.AddWord %w", err)
	}
	return nil
}

// SelectedDictionary returns the key of the currently selected dictionary, or "".
func (s *Session) SelectedDictionary() string {
	return s.selected
}

// Dictionaries returns every registered key, most used first by accumulated selected uptime.
// Order among equal uptimes is unspecified.
func (s *Session) Dictionaries() []string {
	keys := make([]string, 0, len(s.dicts))
	for key := range s.dicts {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return cmp.Compare(s.dicts[b].uptime, s.dicts[a].uptime)
	})
	return keys
}

// Uptime returns how long key has spent as the selected dictionary. Time since the last switch
// is counted once the selection changes or the dictionary is unloaded.
func (s *Session) Uptime(key string) time.Duration {
	if entry, ok := s.dicts[key]; ok {
		return entry.uptime
	}
	return 0
}

// flushUptime credits the elapsed selection time to the outgoing dictionary.
func (s *Session) flushUptime() {
	if s.selected == "" {
		return
	}
	if entry, ok := s.dicts[s.selected]; ok {
		entry.uptime += s.now().Sub(s.selectedAt)
	}
	s.selectedAt = s.now()
}

// Close disposes every dictionary and shuts down the engine runtime.
func (s *Session) Close(ctx context.Context) (err error) {
	for key, entry := range s.dicts {
		err = errors.Join(err, entry.dispose(ctx))
		delete(s.dicts, key)
	}
	s.selected = ""
	if s.engine != nil && s.engine.waRT != nil {
		err = errors.Join(err, s.engine.Close(ctx))
	}
	return err
}
