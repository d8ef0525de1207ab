package gohunspell

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
	"github.com/vpetlovyi/gohunspell/internal/wasm"
)

// mounter exposes dictionary files inside the engine's virtual filesystem. Host directories are
// mounted once each and reference counted per file resolving into them, so unloading one
// dictionary never unmounts a directory another dictionary still reads from. Buffer mounts are
// never shared and carry no counts.
type mounter struct {
	root *wasm.MountFS
	log  *slog.Logger

	dirRefs   map[string]int
	dirGuests map[string]string
	nextMount int
}

func newMounter(root *wasm.MountFS, log *slog.Logger) *mounter {
	return &mounter{
		root:      root,
		log:       log,
		dirRefs:   make(map[string]int),
		dirGuests: make(map[string]string),
	}
}

// mountFiles mounts the directories containing dicPath and affPath and returns the files' guest
// paths plus a release undoing both reference counts.
func (m *mounter) mountFiles(dicPath, affPath string) (guestDic, guestAff string, release func(), err error) {
	logPrefix := "mounter.mountFiles"
	guestDic, err = m.mountFile(dicPath)
	if err != nil {
		return "", "", nil, fmt.Errorf(logPrefix+" %w", err)
	}
	guestAff, err = m.mountFile(affPath)
	if err != nil {
		m.releaseFile(dicPath)
		return "", "", nil, fmt.Errorf(logPrefix+" %w", err)
	}
	return guestDic, guestAff, func() {
		m.releaseFile(dicPath)
		m.releaseFile(affPath)
	}, nil
}

func (m *mounter) mountFile(hostPath string) (string, error) {
	abs, err := filepath.Abs(hostPath)
	if err != nil {
		return "", fmt.Errorf("filepath.Abs %q %w", hostPath, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("os.Stat %w", err)
	}

	dir := filepath.Dir(abs)
	guest, ok := m.dirGuests[dir]
	if !ok {
		guest = fmt.Sprintf("/mnt/%d", m.nextMount)
		m.nextMount++
		if err := m.root.Mount(guest, os.DirFS(dir)); err != nil {
			return "", fmt.Errorf("root.Mount %q %w", dir, err)
		}
		m.dirGuests[dir] = guest
		m.log.Debug("directory mounted", "dir", dir, "guest", guest)
	}
	m.dirRefs[dir]++
	return path.Join(guest, filepath.Base(abs)), nil
}

// releaseFile drops one reference to the directory holding hostPath, unmounting the directory
// once its count reaches zero.
func (m *mounter) releaseFile(hostPath string) {
	abs, err := filepath.Abs(hostPath)
	if err != nil {
		m.log.Warn("release of unresolvable path", "path", hostPath, "err", err)
		return
	}
	dir := filepath.Dir(abs)
	refs, ok := m.dirRefs[dir]
	if !ok || refs <= 0 {
		m.log.Warn("release of unmounted directory", "dir", dir)
		return
	}
	refs--
	if refs > 0 {
		m.dirRefs[dir] = refs
		return
	}
	delete(m.dirRefs, dir)
	guest := m.dirGuests[dir]
	delete(m.dirGuests, dir)
	m.root.Unmount(guest)
	m.log.Debug("directory unmounted", "dir", dir, "guest", guest)
}

// mountBuffers copies the dictionary pair into a fresh in-memory filesystem and mounts it.
// Buffer mounts are unique per load so release drops the whole mount unconditionally.
func (m *mounter) mountBuffers(dic, aff []byte) (guestDic, guestAff string, release func(), err error) {
	logPrefix := "mounter.mountBuffers"
	memFS, err := mem.NewFS()
	if err != nil {
		return "", "", nil, fmt.Errorf(logPrefix+" mem.NewFS %w", err)
	}
	if err := hackpadfs.WriteFullFile(memFS, "index.dic", dic, 0o444); err != nil {
		return "", "", nil, fmt.Errorf(logPrefix+" WriteFullFile dic %w", err)
	}
	if err := hackpadfs.WriteFullFile(memFS, "index.aff", aff, 0o444); err != nil {
		return "", "", nil, fmt.Errorf(logPrefix+" WriteFullFile aff %w", err)
	}

	guest := fmt.Sprintf("/buf/%d", m.nextMount)
	m.nextMount++
	if err := m.root.Mount(guest, memFS); err != nil {
		return "", "", nil, fmt.Errorf(logPrefix+" root.Mount %w", err)
	}
	m.log.Debug("buffers mounted", "guest", guest, "dic", len(dic), "aff", len(aff))

	return path.Join(guest, "index.dic"), path.Join(guest, "index.aff"), func() {
		m.root.Unmount(guest)
		m.log.Debug("buffers unmounted", "guest", guest)
	}, nil
}
