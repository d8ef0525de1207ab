package gohunspell

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vpetlovyi/gohunspell/internal/wasm"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func testMounter(t *testing.T) *mounter {
	t.Helper()
	return newMounter(wasm.NewMountFS(), slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func TestMounterSharedDirectory(t *testing.T) {
	dir := t.TempDir()
	usDic := writeFile(t, dir, "en_US.dic", "1\ncolor\n")
	usAff := writeFile(t, dir, "en_US.aff", "SET UTF-8\n")
	gbDic := writeFile(t, dir, "en_GB.dic", "1\ncolour\n")
	gbAff := writeFile(t, dir, "en_GB.aff", "SET UTF-8\n")

	m := testMounter(t)
	usGuestDic, usGuestAff, usRelease, err := m.mountFiles(usDic, usAff)
	if err != nil {
		t.Fatal(err)
	}
	gbGuestDic, _, gbRelease, err := m.mountFiles(gbDic, gbAff)
	if err != nil {
		t.Fatal(err)
	}

	// Four files in one directory means one mount carrying four references.
	if got := m.dirRefs[dir]; got != 4 {
		t.Fatalf("dirRefs = %d, want 4", got)
	}
	if path.Dir(usGuestAff) != path.Dir(usGuestDic) || path.Dir(usGuestDic) != path.Dir(gbGuestDic) {
		t.Fatalf("files sharing a directory should share a mount: %q %q %q", usGuestDic, usGuestAff, gbGuestDic)
	}

	readGuest := func(guest string) ([]byte, error) {
		return fs.ReadFile(m.root, strings.TrimPrefix(guest, "/"))
	}

	usRelease()
	// en_GB still holds the directory.
	if got := m.dirRefs[dir]; got != 2 {
		t.Fatalf("dirRefs after first release = %d, want 2", got)
	}
	contents, err := readGuest(gbGuestDic)
	if err != nil {
		t.Fatalf("shared directory unmounted too early: %v", err)
	}
	if diff := cmp.Diff("1\ncolour\n", string(contents)); diff != "" {
		t.Fatalf("guest read mismatch: %s", diff)
	}

	gbRelease()
	if len(m.dirRefs) != 0 || len(m.dirGuests) != 0 {
		t.Fatalf("ref tables should be empty: %v %v", m.dirRefs, m.dirGuests)
	}
	if _, err := readGuest(gbGuestDic); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("directory should be unmounted, Open err = %v", err)
	}
}

func TestMounterMissingFileUnwinds(t *testing.T) {
	dir := t.TempDir()
	dic := writeFile(t, dir, "en_US.dic", "1\ncolor\n")

	m := testMounter(t)
	if _, _, _, err := m.mountFiles(dic, filepath.Join(dir, "en_US.aff")); err == nil {
		t.Fatal("mountFiles should have failed on the missing affix file")
	}
	// The data file's reference must not leak when the affix mount fails.
	if len(m.dirRefs) != 0 {
		t.Fatalf("dirRefs should be empty after failed mount: %v", m.dirRefs)
	}
}

func TestMounterReleaseNeverNegative(t *testing.T) {
	m := testMounter(t)
	m.releaseFile("never/mounted.dic")
	if len(m.dirRefs) != 0 {
		t.Fatalf("release of unmounted file should be a no-op: %v", m.dirRefs)
	}
}

func TestMounterBuffers(t *testing.T) {
	m := testMounter(t)
	guestDic, guestAff, release, err := m.mountBuffers([]byte("1\nword\n"), []byte("SET UTF-8\n"))
	if err != nil {
		t.Fatal(err)
	}

	contents, err := fs.ReadFile(m.root, strings.TrimPrefix(guestDic, "/"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("1\nword\n", string(contents)); diff != "" {
		t.Fatalf("buffer read mismatch: %s", diff)
	}
	// Buffer mounts carry no directory references.
	if len(m.dirRefs) != 0 {
		t.Fatalf("buffer mounts should not ref count: %v", m.dirRefs)
	}

	release()
	if _, err := fs.ReadFile(m.root, strings.TrimPrefix(guestAff, "/")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("buffer mount should be gone, err = %v", err)
	}
}
