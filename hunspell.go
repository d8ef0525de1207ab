package gohunspell

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
	"github.com/vpetlovyi/gohunspell/internal/wasm"
)

// Hunspell is one engine instance created from an affix and a dictionary file visible inside the
// module's virtual filesystem. Each Hunspell object is NOT safe for concurrent use.
type Hunspell struct {
	module api.Module
	handle uint64
}

// NewHunspell creates a Hunspell instance from paths previously mounted into mod.
func NewHunspell(ctx context.Context, mod *WASMModule, affPath, dicPath string) (*Hunspell, error) {
	logPrefix := "NewHunspell"
	affPtr, err := wasm.WriteString(ctx, mod.module, affPath)
	if err != nil {
		return nil, fmt.Errorf(logPrefix+" %w", err)
	}
	defer wasm.Free(ctx, mod.module, affPtr)

	dicPtr, err := wasm.WriteString(ctx, mod.module, dicPath)
	if err != nil {
		return nil, fmt.Errorf(logPrefix+" %w", err)
	}
	defer wasm.Free(ctx, mod.module, dicPtr)

	results, err := mod.module.ExportedFunction("Hunspell_create").Call(ctx, affPtr, dicPtr)
	if err != nil {
		return nil, fmt.Errorf(logPrefix+" Hunspell_create results=(%v) %w", results, err)
	}
	if len(results) != 1 || results[0] == 0 {
		return nil, fmt.Errorf(logPrefix+" Hunspell_create returned nullptr for aff=%s dic=%s", affPath, dicPath)
	}

	return &Hunspell{module: mod.module, handle: results[0]}, nil
}

// Spell reports whether the dictionary accepts word.
func (h *Hunspell) Spell(ctx context.Context, word string) (bool, error) {
	logPrefix := "Hunspell.Spell"
	wordPtr, err := wasm.WriteString(ctx, h.module, word)
	if err != nil {
		return false, fmt.Errorf(logPrefix+" %w", err)
	}
	defer wasm.Free(ctx, h.module, wordPtr)

	results, err := h.module.ExportedFunction("Hunspell_spell").Call(ctx, h.handle, wordPtr)
	if err != nil || len(results) != 1 {
		return false, fmt.Errorf(logPrefix+" Hunspell_spell results=(%v) %w", results, err)
	}
	return results[0] != 0, nil
}

// Suggest returns the engine's ranked suggestions for word, best first. The engine's order is
// preserved verbatim.
func (h *Hunspell) Suggest(ctx context.Context, word string) ([]string, error) {
	logPrefix := "Hunspell.Suggest"
	wordPtr, err := wasm.WriteString(ctx, h.module, word)
	if err != nil {
		return nil, fmt.Errorf(logPrefix+" %w", err)
	}
	defer wasm.Free(ctx, h.module, wordPtr)

	// Hunspell_suggest writes a char** into this slot and returns the list length.
	slotPtr, err := wasm.Malloc(ctx, h.module, 4)
	if err != nil {
		return nil, fmt.Errorf(logPrefix+" %w", err)
	}
	defer wasm.Free(ctx, h.module, slotPtr)

	results, err := h.module.ExportedFunction("Hunspell_suggest").Call(ctx, h.handle, slotPtr, wordPtr)
	if err != nil || len(results) != 1 {
		return nil, fmt.Errorf(logPrefix+" Hunspell_suggest results=(%v) %w", results, err)
	}
	count := uint32(results[0])
	if count == 0 {
		return nil, nil
	}

	listPtr, ok := h.module.Memory().ReadUint32Le(uint32(slotPtr))
	if !ok {
		return nil, fmt.Errorf(logPrefix+" reading suggestion list pointer at %d failed", slotPtr)
	}
	suggestions := wasm.ReadStringList(h.module.Memory(), listPtr, count)

	if _, err := h.module.ExportedFunction("Hunspell_free_list").Call(ctx, h.handle, slotPtr, uint64(count)); err != nil {
		return nil, fmt.Errorf(logPrefix+" Hunspell_free_list %w", err)
	}
	return suggestions, nil
}

// AddWord adds word to the instance's runtime word list. It is not written back to the
// dictionary file.
func (h *Hunspell) AddWord(ctx context.Context, word string) error {
	return h.callWithWord(ctx, "Hunspell_add", word)
}

// RemoveWord removes word from the instance's runtime word list.
func (h *Hunspell) RemoveWord(ctx context.Context, word string) error {
	return h.callWithWord(ctx, "Hunspell_remove", word)
}

func (h *Hunspell) callWithWord(ctx context.Context, fn, word string) error {
	wordPtr, err := wasm.WriteString(ctx, h.module, word)
	if err != nil {
		return fmt.Errorf("Hunspell.callWithWord %s %w", fn, err)
	}
	defer wasm.Free(ctx, h.module, wordPtr)

	if _, err := h.module.ExportedFunction(fn).Call(ctx, h.handle, wordPtr); err != nil {
		return fmt.Errorf("Hunspell.callWithWord %s %w", fn, err)
	}
	return nil
}

// Close destroys the engine instance. The owning WASMModule stays usable.
func (h *Hunspell) Close(ctx context.Context) error {
	if h.handle == 0 {
		return nil
	}
	_, err := h.module.ExportedFunction("Hunspell_destroy").Call(ctx, h.handle)
	h.handle = 0
	if err != nil {
		return fmt.Errorf("Hunspell.Close Hunspell_destroy %w", err)
	}
	return nil
}
