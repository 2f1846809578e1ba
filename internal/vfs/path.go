package vfs

import "strings"

// Separator is the only path separator understood by the engine.
const Separator = "/"

// Resolve converts a user supplied path into a backing-store key, relative to
// currentDirectory. Absolute inputs ignore currentDirectory. Segments such as
// "." and ".." are kept verbatim. Every input maps to a key without a leading
// separator.
func Resolve(currentDirectory, inputPath string) string {
	if strings.HasPrefix(inputPath, Separator) {
		return strings.TrimLeft(inputPath, Separator)
	}
	return strings.TrimLeft(join(currentDirectory, inputPath), Separator)
}

// join treats dir as a directory prefix: an empty dir contributes nothing and
// a dir already ending in the separator is not given a second one.
func join(dir, name string) string {
	switch {
	case dir == "":
		return name
	case strings.HasSuffix(dir, Separator):
		return dir + name
	default:
		return dir + Separator + name
	}
}

// DirPrefix returns the key prefix under which the children of dir are
// stored: dir with a trailing separator, or the empty prefix for the root.
func DirPrefix(dir string) string {
	return Resolve(dir, "")
}

// IsDirMarker reports whether key names a directory marker.
func IsDirMarker(key string) bool {
	return strings.HasSuffix(key, Separator)
}
