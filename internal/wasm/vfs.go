package wasm

import (
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
	"time"
)

// MountFS is the filesystem root handed to the WASM guest. wazero fixes its FS configuration at
// module instantiation, so dynamic dictionary mounts are expressed as a mutable table behind a
// single fs.FS: Mount/Unmount calls made after instantiation are visible to the guest on its
// next open.
type MountFS struct {
	mu     sync.RWMutex
	mounts map[string]fs.FS
}

func NewMountFS() *MountFS {
	return &MountFS{mounts: make(map[string]fs.FS)}
}

// guestName normalizes a guest path like "/mnt/0" into the io/fs name "mnt/0".
func guestName(guestPath string) string {
	return strings.Trim(path.Clean("/"+guestPath), "/")
}

// Mount exposes fsys at guestPath. Fails if guestPath is already taken.
func (m *MountFS) Mount(guestPath string, fsys fs.FS) error {
	name := guestName(guestPath)
	if name == "" || name == "." {
		return &fs.PathError{Op: "mount", Path: guestPath, Err: fs.ErrInvalid}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.mounts[name]; ok {
		return &fs.PathError{Op: "mount", Path: guestPath, Err: fs.ErrExist}
	}
	m.mounts[name] = fsys
	return nil
}

// Unmount removes the mount at guestPath, reporting whether it existed.
func (m *MountFS) Unmount(guestPath string) bool {
	name := guestName(guestPath)
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.mounts[name]
	delete(m.mounts, name)
	return ok
}

func (m *MountFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if name == "." {
		return &syntheticDir{name: "."}, nil
	}
	for prefix, fsys := range m.mounts {
		if name == prefix {
			return fsys.Open(".")
		}
		if strings.HasPrefix(name, prefix+"/") {
			return fsys.Open(name[len(prefix)+1:])
		}
		// Intermediate path component of a mount point, e.g. "mnt" for mount "mnt/0".
		if strings.HasPrefix(prefix, name+"/") {
			return &syntheticDir{name: path.Base(name)}, nil
		}
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// syntheticDir stands in for the directories above mount points, which exist only in the table.
type syntheticDir struct {
	name string
}

func (d *syntheticDir) Stat() (fs.FileInfo, error)         { return dirInfo{d.name}, nil }
func (d *syntheticDir) Read([]byte) (int, error)           { return 0, io.EOF }
func (d *syntheticDir) Close() error                       { return nil }
func (d *syntheticDir) ReadDir(int) ([]fs.DirEntry, error) { return nil, nil }

type dirInfo struct {
	name string
}

func (i dirInfo) Name() string       { return i.name }
func (i dirInfo) Size() int64        { return 0 }
func (i dirInfo) Mode() fs.FileMode  { return fs.ModeDir | 0o555 }
func (i dirInfo) ModTime() time.Time { return time.Time{} }
func (i dirInfo) IsDir() bool        { return true }
func (i dirInfo) Sys() any           { return nil }
