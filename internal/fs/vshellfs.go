// Package fs exposes the virtual filesystem as a FUSE mount.
package fs

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"vshell/internal/logging"
	"vshell/internal/vfs"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var (
	fsLogger = logging.GetLogger().WithPrefix("fuse")
)

// FS serves a VirtualFS over FUSE. Directories are derived from key
// prefixes; every engine call happens under mu.
type FS struct {
	engine  *vfs.VirtualFS
	pending map[string]*WriteHandle // files created but not yet flushed
	conn    *fuse.Conn
	uid     uint32
	gid     uint32
	mtime   time.Time
	mu      sync.Mutex
}

// NewFS wraps engine for mounting. PUID and PGID override the owner shown
// for every node.
func NewFS(engine *vfs.VirtualFS) *FS {
	uid := safeIntToUint32(os.Getuid())
	gid := safeIntToUint32(os.Getgid())

	if puidStr := os.Getenv("PUID"); puidStr != "" {
		if puid, err := strconv.ParseUint(puidStr, 10, 32); err == nil {
			uid = uint32(puid)
			fsLogger.Debug("Using PUID from environment: %d", uid)
		}
	}
	if pgidStr := os.Getenv("PGID"); pgidStr != "" {
		if pgid, err := strconv.ParseUint(pgidStr, 10, 32); err == nil {
			gid = uint32(pgid)
			fsLogger.Debug("Using PGID from environment: %d", gid)
		}
	}

	return &FS{
		engine:  engine,
		pending: make(map[string]*WriteHandle),
		uid:     uid,
		gid:     gid,
		mtime:   time.Now(),
	}
}

// Root implements the fusefs.FS interface, returning the root directory node.
func (f *FS) Root() (fusefs.Node, error) {
	fsLogger.Trace("Getting root directory node")
	return &Dir{fs: f, key: ""}, nil
}

func waitForMount(mountpoint string) error {
	for i := 0; i < 30; i++ {
		info, err := os.Stat(mountpoint)
		if err == nil && info.IsDir() {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("mount point not available after 3 seconds")
}

// Serve mounts the filesystem at mountPoint and blocks until ctx is done or
// the kernel drops the connection, then unmounts.
func (f *FS) Serve(ctx context.Context, mountPoint string) error {
	fsLogger.Info("Mounting virtual filesystem at %s", mountPoint)
	fsLogger.Debug("UID: %d, GID: %d", f.uid, f.gid)

	c, err := fuse.Mount(mountPoint,
		fuse.FSName("vshell"),
		fuse.Subtype("vshell"),
		fuse.DefaultPermissions(),
		fuse.AsyncRead(),
	)
	if err != nil {
		return fmt.Errorf("mount failed: %w", err)
	}
	f.conn = c
	defer c.Close()

	done := make(chan error, 1)
	go func() {
		done <- fusefs.Serve(c, f)
	}()

	if err := waitForMount(mountPoint); err != nil {
		fsLogger.Error("Mount point not ready: %v", err)
		_ = f.Unmount(mountPoint)
		return fmt.Errorf("mount point failed to initialize: %w", err)
	}
	fsLogger.Info("Filesystem mounted and ready")

	select {
	case err := <-done:
		if err != nil {
			fsLogger.Error("FUSE server error: %v", err)
			return fmt.Errorf("serve failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		fsLogger.Info("Shutting down: %v", context.Cause(ctx))
	}

	if err := f.Unmount(mountPoint); err != nil {
		return err
	}
	if err := <-done; err != nil {
		fsLogger.Error("FUSE server error: %v", err)
	}
	fsLogger.Info("Clean shutdown complete")
	return nil
}

// Unmount cleanly unmounts the filesystem.
func (f *FS) Unmount(mountPoint string) error {
	fsLogger.Info("Unmounting filesystem from: %s", mountPoint)
	if f.conn == nil {
		return nil
	}
	if err := fuse.Unmount(mountPoint); err != nil {
		fsLogger.Error("Unmount failed: %v", err)
		return fmt.Errorf("unmount failed: %w", err)
	}
	fsLogger.Info("Unmount completed successfully")
	return nil
}

// abs turns a table key into the absolute form the engine resolves
// independently of its current directory.
func abs(key string) string {
	return vfs.Separator + key
}

// lookupFile returns the content stored under key. Callers hold mu.
func (f *FS) lookupFile(key string) (string, bool) {
	if key == "" || vfs.IsDirMarker(key) {
		return "", false
	}
	content, err := f.engine.Cat(abs(key))
	if err != nil {
		return "", false
	}
	return content, true
}

// isDir reports whether any key lives below key. Callers hold mu.
func (f *FS) isDir(key string) bool {
	return key == "" || f.engine.Exists(abs(vfs.DirPrefix(key)))
}
