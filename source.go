package gohunspell

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/vpetlovyi/gohunspell/internal/wasm"
)

// ErrInvalidSource is returned when a dictionary source doesn't carry both a data and an affix
// input of the same kind.
var ErrInvalidSource = errors.New("dictionary source requires both a data and an affix input")

// Source selects how a dictionary's data and affix rules reach the engine. It is either a
// FileSource or a BufferSource; dispatch is explicit, never by reflection.
type Source interface {
	validate() error
}

// FileSource points at a .dic and .aff file on disk. The directory holding each file is mounted
// into the engine, and shared directories are reference counted so two dictionaries living side
// by side don't pull the mount out from under each other.
type FileSource struct {
	Dic, Aff string
}

func (s FileSource) validate() error {
	if s.Dic == "" || s.Aff == "" {
		return fmt.Errorf("FileSource dic=%q aff=%q %w", s.Dic, s.Aff, ErrInvalidSource)
	}
	return nil
}

// BufferSource carries the .dic and .aff contents in memory. Each load gets its own in-memory
// mount, released unconditionally when the dictionary is unloaded.
type BufferSource struct {
	Dic, Aff []byte
}

func (s BufferSource) validate() error {
	if len(s.Dic) == 0 || len(s.Aff) == 0 {
		return fmt.Errorf("BufferSource dic=%d aff=%d bytes %w", len(s.Dic), len(s.Aff), ErrInvalidSource)
	}
	return nil
}

// ReadSource drains dic and aff into a BufferSource, for callers holding readers such as
// embedded files or HTTP bodies.
func ReadSource(ctx context.Context, dic, aff io.Reader) (BufferSource, error) {
	logPrefix := "ReadSource"
	dicBuf, err := readAll(ctx, dic)
	if err != nil {
		return BufferSource{}, fmt.Errorf(logPrefix+" dic %w", err)
	}
	affBuf, err := readAll(ctx, aff)
	if err != nil {
		return BufferSource{}, fmt.Errorf(logPrefix+" aff %w", err)
	}
	return BufferSource{Dic: dicBuf, Aff: affBuf}, nil
}

func readAll(ctx context.Context, r io.Reader) ([]byte, error) {
	size, err := wasm.GetReaderSize(ctx, &r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("io.ReadFull %w", err)
	}
	return buf, nil
}
