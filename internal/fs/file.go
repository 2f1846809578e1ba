package fs

import (
	"context"
	"os"
	"sync"
	"syscall"

	"vshell/internal/logging"
	"vshell/internal/vfs"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var (
	fileLogger = logging.GetLogger().WithPrefix("file")
)

// maxFileSize bounds the content buffered for a new file. The archive is
// rewritten whole on every mutation, so larger files are not useful.
const maxFileSize = 64 << 20

// File is a file node addressed by its table key.
type File struct {
	fs  *FS
	key string
}

// Attr implements the Node interface. The mode is derived from the
// recorded permission string.
func (f *File) Attr(_ context.Context, a *fuse.Attr) error {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()

	fileLogger.Trace("Getting attributes for file: %q", f.key)

	var size int
	perm := vfs.DefaultPermission
	if h, ok := f.fs.pending[f.key]; ok {
		size = h.size()
	} else {
		content, ok := f.fs.lookupFile(f.key)
		if !ok {
			fileLogger.Warn("File not found: %q", f.key)
			return syscall.ENOENT
		}
		size = len(content)
		if p, ok := f.fs.engine.Permission(abs(f.key)); ok {
			perm = p
		}
	}

	a.Mode = modeFromPermission(perm)
	a.Size = safeIntToUint64(size)
	a.Mtime = f.fs.mtime
	a.Atime = f.fs.mtime
	a.Ctime = f.fs.mtime
	a.Uid = f.fs.uid
	a.Gid = f.fs.gid
	a.BlockSize = 4096
	a.Blocks = safeIntToUint64((size + 511) / 512)

	fileLogger.Trace("File attributes: mode=%v, size=%d", a.Mode, a.Size)
	return nil
}

// Open implements the NodeOpener interface. Stored files are read-only:
// content can only be set when a file is created.
func (f *File) Open(_ context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fusefs.Handle, error) {
	flags := int(req.Flags)
	fileLogger.Debug("Opening file %q with flags %v", f.key, flags)

	if flags&os.O_WRONLY != 0 || flags&os.O_RDWR != 0 {
		fileLogger.Warn("Attempted write access to stored file: %q", f.key)
		return nil, syscall.EPERM
	}

	f.fs.mu.Lock()
	content, ok := f.fs.lookupFile(f.key)
	f.fs.mu.Unlock()
	if !ok {
		return nil, ToFuseError(vfs.NewError(OpOpen, f.key, vfs.ErrNotFound))
	}

	resp.Flags |= fuse.OpenDirectIO
	return &FileHandle{data: []byte(content), key: f.key}, nil
}

// Setattr implements the NodeSetattrer interface. Mode changes are recorded
// as a permission string; truncation is only allowed while the file is
// still being written.
func (f *File) Setattr(ctx context.Context, req *fuse.SetattrRequest, resp *fuse.SetattrResponse) error {
	fileLogger.Debug("Setting attributes for %q (valid=%v)", f.key, req.Valid)

	f.fs.mu.Lock()
	h, pending := f.fs.pending[f.key]
	if req.Valid.Size() {
		if !pending {
			f.fs.mu.Unlock()
			return syscall.EPERM
		}
		if req.Size > maxFileSize {
			f.fs.mu.Unlock()
			return syscall.EFBIG
		}
		h.truncate(int(req.Size))
	}
	if req.Valid.Mode() && !pending {
		perm := permissionFromMode(req.Mode)
		if _, err := f.fs.engine.Chmod(abs(f.key), perm); err != nil {
			f.fs.mu.Unlock()
			return ToFuseError(err)
		}
		fileLogger.Info("Permission of %q set to %q", f.key, perm)
	}
	f.fs.mu.Unlock()

	return f.Attr(ctx, &resp.Attr)
}

// FileHandle is a read handle over a snapshot of the file taken at open.
type FileHandle struct {
	data []byte
	key  string // For logging purposes
}

// Read implements the HandleReader interface.
func (fh *FileHandle) Read(_ context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	fileLogger.Trace("Reading %d bytes from file %q at offset %d", req.Size, fh.key, req.Offset)

	if req.Offset >= int64(len(fh.data)) {
		resp.Data = nil
		return nil
	}
	end := req.Offset + int64(req.Size)
	if end > int64(len(fh.data)) {
		end = int64(len(fh.data))
	}
	resp.Data = fh.data[req.Offset:end]
	return nil
}

// WriteHandle buffers the content of a newly created file and stores it
// through the engine on the first flush.
type WriteHandle struct {
	fs        *FS
	key       string
	buf       []byte
	committed bool
	mu        sync.Mutex
}

func (wh *WriteHandle) size() int {
	wh.mu.Lock()
	defer wh.mu.Unlock()
	return len(wh.buf)
}

func (wh *WriteHandle) truncate(n int) {
	wh.mu.Lock()
	defer wh.mu.Unlock()
	if n < len(wh.buf) {
		wh.buf = wh.buf[:n]
		return
	}
	wh.buf = append(wh.buf, make([]byte, n-len(wh.buf))...)
}

// Write implements the HandleWriter interface.
func (wh *WriteHandle) Write(_ context.Context, req *fuse.WriteRequest, resp *fuse.WriteResponse) error {
	wh.mu.Lock()
	defer wh.mu.Unlock()

	if wh.committed {
		fileLogger.Warn("Write to %q after it was stored", wh.key)
		return syscall.EPERM
	}

	if req.Offset < 0 || req.Offset > maxFileSize || int64(len(req.Data)) > maxFileSize-req.Offset {
		fileLogger.Warn("Write to %q at offset %d (%d bytes) exceeds %d bytes", wh.key, req.Offset, len(req.Data), maxFileSize)
		return syscall.EFBIG
	}

	end := int(req.Offset) + len(req.Data)
	if end > len(wh.buf) {
		wh.buf = append(wh.buf, make([]byte, end-len(wh.buf))...)
	}
	copy(wh.buf[req.Offset:], req.Data)
	resp.Size = len(req.Data)

	fileLogger.Trace("Buffered %d bytes for %q at offset %d", len(req.Data), wh.key, req.Offset)
	return nil
}

// Flush implements the HandleFlusher interface.
func (wh *WriteHandle) Flush(_ context.Context, _ *fuse.FlushRequest) error {
	return wh.commit()
}

// Release implements the HandleReleaser interface.
func (wh *WriteHandle) Release(_ context.Context, _ *fuse.ReleaseRequest) error {
	return wh.commit()
}

func (wh *WriteHandle) commit() error {
	wh.fs.mu.Lock()
	defer wh.fs.mu.Unlock()
	wh.mu.Lock()
	defer wh.mu.Unlock()

	if wh.committed {
		return nil
	}
	wh.committed = true
	delete(wh.fs.pending, wh.key)

	msg, err := wh.fs.engine.Nano(abs(wh.key), string(wh.buf))
	if err != nil {
		fileLogger.Error("Failed to store %q: %v", wh.key, err)
		return ToFuseError(err)
	}
	fileLogger.Info("%s", msg)
	return nil
}
