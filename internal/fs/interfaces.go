package fs

import (
	"bazil.org/fuse/fs"
)

// Directory is what the kernel needs from a directory node.
type Directory interface {
	fs.Node
	fs.NodeStringLookuper
	fs.HandleReadDirAller
	fs.NodeMkdirer
	fs.NodeRemover
	fs.NodeCreater
}

// FileInterface represents a file in the virtual filesystem
type FileInterface interface {
	fs.Node
	fs.NodeOpener
	fs.NodeSetattrer
}

// FileHandleInterface represents an open read handle
type FileHandleInterface interface {
	fs.Handle
	fs.HandleReader
}

// WriteHandleInterface represents the handle of a file being created
type WriteHandleInterface interface {
	fs.Handle
	fs.HandleWriter
	fs.HandleFlusher
	fs.HandleReleaser
}

var (
	_ fs.FS                = (*FS)(nil)
	_ Directory            = (*Dir)(nil)
	_ FileInterface        = (*File)(nil)
	_ FileHandleInterface  = (*FileHandle)(nil)
	_ WriteHandleInterface = (*WriteHandle)(nil)
)
