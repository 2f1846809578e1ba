package fs

import (
	"context"
	"os"
	"strings"
	"syscall"

	"vshell/internal/logging"
	"vshell/internal/vfs"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var (
	dirLogger = logging.GetLogger().WithPrefix("dir")
)

// Dir is a directory node. key is the table key without its trailing
// separator; the root is "".
type Dir struct {
	fs  *FS
	key string
}

func (d *Dir) child(name string) string {
	return vfs.Resolve(d.key, name)
}

// Attr implements the Node interface, returning directory attributes.
func (d *Dir) Attr(_ context.Context, a *fuse.Attr) error {
	dirLogger.Trace("Getting attributes for directory: %q", d.key)
	a.Mode = os.ModeDir | 0755
	a.Uid = d.fs.uid
	a.Gid = d.fs.gid
	a.Mtime = d.fs.mtime
	return nil
}

// Lookup implements the NodeStringLookuper interface, finding a child node.
// A key that is both a file and a prefix of other keys resolves to the file.
func (d *Dir) Lookup(_ context.Context, name string) (fusefs.Node, error) {
	childKey := d.child(name)
	dirLogger.Debug("Looking up %q in directory %q", name, d.key)

	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	if _, ok := d.fs.pending[childKey]; ok {
		return &File{fs: d.fs, key: childKey}, nil
	}
	if _, ok := d.fs.lookupFile(childKey); ok {
		dirLogger.Trace("Found file: %q", childKey)
		return &File{fs: d.fs, key: childKey}, nil
	}
	if d.fs.isDir(childKey) {
		dirLogger.Trace("Found directory: %q", childKey)
		return &Dir{fs: d.fs, key: childKey}, nil
	}

	dirLogger.Debug("Path not found: %q", childKey)
	return nil, syscall.ENOENT
}

// ReadDirAll implements the HandleReadDirAller interface. Children are the
// first path component of every key below the directory, in table order.
func (d *Dir) ReadDirAll(_ context.Context) ([]fuse.Dirent, error) {
	dirLogger.Debug("Reading directory contents: %q", d.key)

	entries := []fuse.Dirent{
		{Name: ".", Type: fuse.DT_Dir},
		{Name: "..", Type: fuse.DT_Dir},
	}
	seen := make(map[string]bool)
	add := func(name string, typ fuse.DirentType) {
		if seen[name] {
			return
		}
		seen[name] = true
		entries = append(entries, fuse.Dirent{Name: name, Type: typ})
	}

	prefix := vfs.DirPrefix(d.key)

	d.fs.mu.Lock()
	for _, entry := range d.fs.engine.Entries() {
		if !strings.HasPrefix(entry.Key, prefix) {
			continue
		}
		rel := entry.Key[len(prefix):]
		if rel == "" {
			continue
		}
		if i := strings.Index(rel, vfs.Separator); i >= 0 {
			add(rel[:i], fuse.DT_Dir)
		} else {
			add(rel, fuse.DT_File)
		}
	}
	for key := range d.fs.pending {
		if rel, ok := strings.CutPrefix(key, prefix); ok && !strings.Contains(rel, vfs.Separator) {
			add(rel, fuse.DT_File)
		}
	}
	d.fs.mu.Unlock()

	dirLogger.Debug("Directory %q contains %d entries", d.key, len(entries))
	return entries, nil
}

// Mkdir implements the NodeMkdirer interface by storing a directory marker.
func (d *Dir) Mkdir(_ context.Context, req *fuse.MkdirRequest) (fusefs.Node, error) {
	childKey := d.child(req.Name)
	dirLogger.Info("Creating new directory %q in %q", req.Name, d.key)

	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	_, isFile := d.fs.lookupFile(childKey)
	if isFile || d.fs.isDir(childKey) {
		dirLogger.Warn("Path already exists: %q", childKey)
		return nil, syscall.EEXIST
	}
	if _, err := d.fs.engine.Mkdir(abs(childKey)); err != nil {
		dirLogger.Error("Failed to create directory: %v", err)
		return nil, ToFuseError(err)
	}

	dirLogger.Info("Successfully created directory: %s", childKey)
	return &Dir{fs: d.fs, key: childKey}, nil
}

// Remove implements the NodeRemover interface. Only an empty directory,
// which is one holding nothing but its own marker, can be removed.
func (d *Dir) Remove(_ context.Context, req *fuse.RemoveRequest) error {
	childKey := d.child(req.Name)
	dirLogger.Info("Removing %q from directory %q (isDir=%v)", req.Name, d.key, req.Dir)

	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	target := childKey
	if req.Dir {
		target = vfs.DirPrefix(childKey)
		if err := d.checkEmpty(target); err != nil {
			return ToFuseError(err)
		}
	}

	if _, err := d.fs.engine.Rm(abs(target)); err != nil {
		dirLogger.Warn("Failed to remove %q: %v", target, err)
		return ToFuseError(err)
	}

	dirLogger.Info("Successfully removed %q", target)
	return nil
}

func (d *Dir) checkEmpty(marker string) error {
	found := false
	for _, entry := range d.fs.engine.Entries() {
		if entry.Key == marker {
			found = true
			continue
		}
		if strings.HasPrefix(entry.Key, marker) {
			return vfs.NewError(OpRemove, marker, ErrDirectoryNotEmpty)
		}
	}
	if !found {
		return vfs.NewError(OpRemove, marker, vfs.ErrNotFound)
	}
	return nil
}

// Create implements the NodeCreater interface. The file is stored when the
// returned handle is flushed; existing files are never overwritten.
func (d *Dir) Create(_ context.Context, req *fuse.CreateRequest, resp *fuse.CreateResponse) (fusefs.Node, fusefs.Handle, error) {
	childKey := d.child(req.Name)
	dirLogger.Info("Creating file %q in %q", req.Name, d.key)

	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()

	if _, ok := d.fs.pending[childKey]; ok {
		return nil, nil, syscall.EEXIST
	}
	if _, ok := d.fs.lookupFile(childKey); ok {
		dirLogger.Warn("File already exists: %q", childKey)
		return nil, nil, syscall.EEXIST
	}

	handle := &WriteHandle{fs: d.fs, key: childKey}
	d.fs.pending[childKey] = handle

	resp.Flags |= fuse.OpenDirectIO
	return &File{fs: d.fs, key: childKey}, handle, nil
}
