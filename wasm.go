package gohunspell

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/vpetlovyi/gohunspell/internal/wasm"
)

// WASMModule is a WebAssembly runtime with the compiled Hunspell engine instantiated inside it.
// One module hosts any number of Hunspell instances sharing its virtual filesystem.
type WASMModule struct {
	waRT   wazero.Runtime
	module api.Module
	root   *wasm.MountFS
}

type WASMConfig struct {
	// Stderr and Stdout are used to redirect Hunspell's output. If left nil these are set to os.Stdout and os.Stderr. Set to io.Discard to turn off.
	Stderr, Stdout io.Writer
	// WASMCache may be set to reuse compilation across runtimes.
	WASMCache wazero.CompilationCache
}

// NewWASM returns a WebAssembly runtime including the compiled Hunspell WASM ready for use.
func NewWASM(ctx context.Context, cfg WASMConfig) (_ *WASMModule, err error) {
	logPrefix := "NewWASM"
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	rtCfg := wazero.NewRuntimeConfig()
	if cfg.WASMCache != nil {
		rtCfg = rtCfg.WithCompilationCache(cfg.WASMCache)
	}

	w := &WASMModule{
		waRT: wazero.NewRuntimeWithConfig(ctx, rtCfg),
		root: wasm.NewMountFS(),
	}
	w.module, err = wasm.CompileHunspell(ctx, w.waRT, wasm.CompileConfig{
		Stderr: cfg.Stderr, Stdout: cfg.Stdout, Root: w.root,
	})
	if err != nil {
		return nil, fmt.Errorf(logPrefix+" wasm.CompileHunspell %w", err)
	}

	return w, nil
}

// Close closes the WebAssembly runtime.
func (w *WASMModule) Close(ctx context.Context) error {
	return w.waRT.Close(ctx)
}
