package vfs

// DefaultPermission is assigned to files that are created or loaded without
// an explicit permission.
const DefaultPermission = "rw"

// FileSeed declares a file injected at construction time.
type FileSeed struct {
	Name       string
	Content    string
	Permission string
}

// Seed is the set of entries a configuration document declares. Files are
// applied before directories, each in declaration order.
type Seed struct {
	Files       []FileSeed
	Directories []string
}

// Empty reports whether the seed declares nothing.
func (s *Seed) Empty() bool {
	return s == nil || (len(s.Files) == 0 && len(s.Directories) == 0)
}
