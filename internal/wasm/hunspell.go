package wasm

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"io/fs"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

//go:embed hunspell.wasm
var hunspellWASM []byte

type CompileConfig struct {
	// Stderr and Stdout are used to redirect the engine's output. If left nil these are set to os.Stdout and os.Stderr. Set to io.Discard to ignore.
	Stderr, Stdout io.Writer
	// Root is mounted as the guest's filesystem root. Dictionaries mounted into it after
	// instantiation are visible to the engine on its next open.
	Root fs.FS
}

// CompileHunspell compiles and instantiates the embedded Hunspell WASM, built with emscripten
// and exporting the plain Hunspell C API alongside malloc/free.
func CompileHunspell(ctx context.Context, waRT wazero.Runtime, cfg CompileConfig) (api.Module, error) {
	logPrefix := "CompileHunspell"
	hunCompiled, err := waRT.CompileModule(ctx, hunspellWASM)
	if err != nil {
		return nil, fmt.Errorf(logPrefix+" waRT.CompileModule %w", err)
	}

	if err := BuildImports(ctx, waRT, hunCompiled); err != nil {
		return nil, fmt.Errorf(logPrefix+" %w", err)
	}

	modCfg := wazero.NewModuleConfig().
		WithStderr(cfg.Stderr).
		WithStdout(cfg.Stdout).
		WithStartFunctions("_initialize")
	if cfg.Root != nil {
		modCfg = modCfg.WithFSConfig(wazero.NewFSConfig().WithFSMount(cfg.Root, "/"))
	}

	hunMod, err := waRT.InstantiateModule(ctx, hunCompiled, modCfg)
	if err != nil {
		return nil, fmt.Errorf(logPrefix+" waRT.InstantiateModule %w", err)
	}

	return hunMod, nil
}
