package gohunspell_test

import (
	"bytes"
	"context"
	_ "embed"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/danlock/pkg/test"
	"github.com/tetratelabs/wazero"
	"github.com/vpetlovyi/gohunspell"
)

//go:embed testdata/en_GB.dic
var enGBDic []byte

//go:embed testdata/en_GB.aff
var enGBAff []byte

type captureSink struct {
	locale  string
	enabled bool
	check   gohunspell.CheckFunc
}

func (c *captureSink) Attach(locale string, enabled bool, check gohunspell.CheckFunc) {
	c.locale, c.enabled, c.check = locale, enabled, check
}

func TestSessionEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sink := &captureSink{}
	sess := gohunspell.NewSession(gohunspell.SessionConfig{
		Sink:      sink,
		Stderr:    io.Discard,
		Stdout:    io.Discard,
		WASMCache: wazero.NewCompilationCache(),
	})
	defer func() {
		test.FailOnError(t, sess.Close(ctx))
	}()

	test.FailOnError(t, sess.Initialize(ctx))
	// Initialize is idempotent once the engine is up.
	test.FailOnError(t, sess.Initialize(ctx))

	test.FailOnError(t, sess.LoadDictionary(ctx, "en-us", gohunspell.FileSource{
		Dic: "testdata/en_US.dic",
		Aff: "testdata/en_US.aff",
	}))

	src, err := gohunspell.ReadSource(ctx, bytes.NewBuffer(enGBDic), bytes.NewBuffer(enGBAff))
	test.FailOnError(t, err)
	test.FailOnError(t, sess.LoadDictionary(ctx, "en-gb", src))

	test.FailOnError(t, sess.SwitchDictionary("en-us", true))
	if sink.locale != "en-us" || !sink.enabled {
		t.Fatalf("sink got locale=%q enabled=%t", sink.locale, sink.enabled)
	}

	tests := []struct {
		word string
		want bool
	}{
		{"color", true},
		{"colors", true},  // affix expansion in the primary
		{"colour", true},  // only the secondary accepts, quorum says correct
		{"cheques", true}, // affix expansion in the secondary
		{"colr", false},   // nobody accepts
	}
	for _, tt := range tests {
		if got := sink.check(tt.word); got != tt.want {
			t.Errorf("check(%q) = %t, want %t", tt.word, got, tt.want)
		}
	}

	suggestions := sess.Suggest(ctx, "colr")
	if !slices.Contains(suggestions, "color") {
		t.Fatalf("Suggest(colr) = %v, want it to contain color", suggestions)
	}

	test.FailOnError(t, sess.UnloadDictionary(ctx, "en-us"))
	if sink.enabled || !sink.check("notaword") {
		t.Fatal("unloading the selected dictionary should leave an always-correct callback")
	}
	test.FailOnError(t, sess.UnloadDictionary(ctx, "en-gb"))
	if got := sess.Dictionaries(); len(got) != 0 {
		t.Fatalf("Dictionaries() = %v after unloading everything", got)
	}
}

func BenchmarkSessionCheckWord(b *testing.B) {
	ctx := context.Background()
	sess := gohunspell.NewSession(gohunspell.SessionConfig{Stderr: io.Discard, Stdout: io.Discard})
	defer sess.Close(ctx)

	err := sess.LoadDictionary(ctx, "en-us", gohunspell.FileSource{
		Dic: "testdata/en_US.dic",
		Aff: "testdata/en_US.aff",
	})
	test.FailOnError(b, err)
	test.FailOnError(b, sess.SwitchDictionary("en-us", false))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := sess.CheckWord(ctx, "colors"); err != nil {
			b.Fatal(err)
		}
	}
}
