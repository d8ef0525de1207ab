package frame_test

import (
	"testing"

	"github.com/vpetlovyi/gohunspell/frame"
)

type fakeHost struct {
	locale   string
	enabled  bool
	provider frame.Provider
	calls    int
}

func (h *fakeHost) SetSpellCheckProvider(locale string, enabled bool, p frame.Provider) {
	h.locale, h.enabled, h.provider = locale, enabled, p
	h.calls++
}

func TestSink(t *testing.T) {
	t.Cleanup(func() { frame.SetHost(nil) })

	if frame.Available() {
		t.Fatal("no host registered yet")
	}
	// Without a host, attaching must stay a silent no-op.
	frame.Sink{}.Attach("en-us", true, func(string) bool { return true })

	host := &fakeHost{}
	frame.SetHost(host)
	if !frame.Available() {
		t.Fatal("host registered, Available() = false")
	}

	frame.Sink{}.Attach("en-us", true, func(word string) bool { return word == "word" })
	if host.calls != 1 || host.locale != "en-us" || !host.enabled {
		t.Fatalf("host got calls=%d locale=%q enabled=%t", host.calls, host.locale, host.enabled)
	}
	if !host.provider.SpellCheck("word") || host.provider.SpellCheck("wrod") {
		t.Fatal("provider callback disagrees with the attached check")
	}

	frame.SetHost(nil)
	if frame.Available() {
		t.Fatal("host uninstalled, Available() = true")
	}
}
