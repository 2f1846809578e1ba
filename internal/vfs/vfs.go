package vfs

import (
	"errors"
	"fmt"
	"strings"

	"vshell/internal/archive"
	"vshell/internal/logging"
)

var (
	logger = logging.GetLogger().WithPrefix("vfs")
)

// Store loads and persists the whole table. *archive.Store implements it.
type Store interface {
	Load() ([]archive.Member, error)
	Save(members []archive.Member) error
}

// Entry is one stored record, as returned by Entries.
type Entry struct {
	Key        string
	Content    string
	Permission string // empty for entries without a permission, e.g. seeded directories
}

// IsDir reports whether the entry is a directory marker.
func (e Entry) IsDir() bool {
	return IsDirMarker(e.Key)
}

// VirtualFS is the filesystem engine. It keeps the whole namespace in an
// ordered table and rewrites the backing archive after every mutation of
// that table.
//
// A VirtualFS is not safe for concurrent use; callers serialize access.
type VirtualFS struct {
	store            Store
	entries          *table
	permissions      map[string]string
	currentDirectory string
}

// New loads every file member of the store's archive and then applies seed,
// which may be nil. Seeding does not write the archive.
func New(store Store, seed *Seed) (*VirtualFS, error) {
	logger.Info("Creating new virtual filesystem")

	members, err := store.Load()
	if err != nil {
		return nil, NewError(OpLoad, "", storeError(err))
	}

	v := &VirtualFS{
		store:       store,
		entries:     newTable(),
		permissions: make(map[string]string),
	}

	for _, m := range members {
		if m.IsDir() {
			continue
		}
		v.entries.set(m.Name, m.Content)
		v.permissions[m.Name] = DefaultPermission
	}
	logger.Debug("Loaded %d entries from archive", v.entries.len())

	if err := v.applySeed(seed); err != nil {
		return nil, err
	}

	logger.Info("Virtual filesystem created with %d entries", v.entries.len())
	return v, nil
}

func (v *VirtualFS) applySeed(seed *Seed) error {
	if seed.Empty() {
		return nil
	}

	logger.Debug("Applying seed: %d files, %d directories", len(seed.Files), len(seed.Directories))
	for _, f := range seed.Files {
		if f.Name == "" {
			return NewError(OpSeed, "", fmt.Errorf("%w: file without a name", ErrConfig))
		}
		perm := f.Permission
		if perm == "" {
			perm = DefaultPermission
		}
		logger.Trace("Seeding file %q (permission %q)", f.Name, perm)
		v.entries.set(f.Name, f.Content)
		v.permissions[f.Name] = perm
	}

	for _, d := range seed.Directories {
		if d == "" {
			return NewError(OpSeed, "", fmt.Errorf("%w: directory without a name", ErrConfig))
		}
		logger.Trace("Seeding directory %q", d)
		v.entries.set(d+Separator, "")
	}
	return nil
}

// Pwd returns the current directory verbatim. The root is the empty string.
func (v *VirtualFS) Pwd() string {
	return v.currentDirectory
}

// Ls lists every stored key below the current directory, relative to it, in
// table order. Keys more than one level down keep their separators.
func (v *VirtualFS) Ls() []string {
	prefix := DirPrefix(v.currentDirectory)
	logger.Trace("Listing keys with prefix %q", prefix)

	names := []string{}
	v.entries.each(func(key, _ string) bool {
		if strings.HasPrefix(key, prefix) && len(key) > len(prefix) {
			names = append(names, key[len(prefix):])
		}
		return true
	})
	return names
}

// Cd changes the current directory. Any stored key starting with the
// resolved path makes it a valid target, including a file's own key.
func (v *VirtualFS) Cd(path string) error {
	target := v.resolve(path)
	if !v.entries.anyWithPrefix(target) {
		logger.Debug("Directory not found: %q", target)
		return NewError(OpCd, path, ErrNotFound)
	}

	logger.Debug("Changing directory %q -> %q", v.currentDirectory, target)
	v.currentDirectory = target
	return nil
}

// Cat returns the content stored under the exact resolved key. Permissions
// are not consulted.
func (v *VirtualFS) Cat(path string) (string, error) {
	key := v.resolve(path)
	content, ok := v.entries.get(key)
	if !ok {
		logger.Debug("File not found: %q", key)
		return "", NewError(OpCat, path, ErrNotFound)
	}
	return content, nil
}

// Mkdir stores a directory marker unless some key already lives under the
// directory. An existing directory is reported in the message, not as an
// error; only a failed archive rewrite is.
func (v *VirtualFS) Mkdir(path string) (string, error) {
	key := v.resolve(path) + Separator
	if v.entries.anyWithPrefix(key) {
		return fmt.Sprintf("Directory %s already exists.", path), nil
	}

	logger.Info("Creating directory %q", key)
	v.entries.set(key, "")
	if err := v.persist(OpMkdir, path); err != nil {
		return "", err
	}
	return fmt.Sprintf("Directory %s created.", path), nil
}

// Nano creates a file with content. It never overwrites: an existing key is
// reported in the message and left unchanged.
func (v *VirtualFS) Nano(path, content string) (string, error) {
	key := v.resolve(path)
	if v.entries.has(key) {
		return fmt.Sprintf("File %s already exists.", path), nil
	}

	logger.Info("Creating file %q (%d bytes)", key, len(content))
	v.entries.set(key, content)
	v.permissions[key] = DefaultPermission
	if err := v.persist(OpNano, path); err != nil {
		return "", err
	}
	return fmt.Sprintf("File %s created.", path), nil
}

// Rm deletes the exact resolved key, file or directory marker.
func (v *VirtualFS) Rm(path string) (string, error) {
	key := v.resolve(path)
	if !v.entries.remove(key) {
		logger.Debug("File not found: %q", key)
		return "", NewError(OpRm, path, ErrNotFound)
	}
	delete(v.permissions, key)

	logger.Info("Removed %q", key)
	if err := v.persist(OpRm, path); err != nil {
		return "", err
	}
	return fmt.Sprintf("File %s removed.", path), nil
}

// Chmod records permission for the resolved key. The value is metadata only:
// it is neither enforced nor written to the archive.
func (v *VirtualFS) Chmod(path, permission string) (string, error) {
	key := v.resolve(path)
	if !v.entries.has(key) {
		logger.Debug("File not found: %q", key)
		return "", NewError(OpChmod, path, ErrNotFound)
	}

	logger.Debug("Setting permission of %q to %q", key, permission)
	v.permissions[key] = permission
	return fmt.Sprintf("Permissions for %s set to %s.", path, permission), nil
}

// Permission returns the permission recorded for path, if any.
func (v *VirtualFS) Permission(path string) (string, bool) {
	perm, ok := v.permissions[v.resolve(path)]
	return perm, ok
}

// Exists reports whether path is present by the prefix rule used by Cd.
func (v *VirtualFS) Exists(path string) bool {
	return v.entries.anyWithPrefix(v.resolve(path))
}

// Entries returns a snapshot of the table in insertion order.
func (v *VirtualFS) Entries() []Entry {
	entries := make([]Entry, 0, v.entries.len())
	v.entries.each(func(key, content string) bool {
		entries = append(entries, Entry{
			Key:        key,
			Content:    content,
			Permission: v.permissions[key],
		})
		return true
	})
	return entries
}

func (v *VirtualFS) resolve(path string) string {
	key := Resolve(v.currentDirectory, path)
	logger.Trace("Resolved %q in %q -> %q", path, v.currentDirectory, key)
	return key
}

// persist rewrites the whole archive from the table. On failure the table
// keeps the mutation; memory and disk differ until the next successful save.
func (v *VirtualFS) persist(op, path string) error {
	members := make([]archive.Member, 0, v.entries.len())
	v.entries.each(func(key, content string) bool {
		members = append(members, archive.Member{Name: key, Content: content})
		return true
	})

	if err := v.store.Save(members); err != nil {
		logger.Error("Failed to save archive after %s: %v", op, err)
		return NewError(op, path, fmt.Errorf("%w: %w", ErrIO, err))
	}
	logger.Trace("Persisted %d entries after %s", len(members), op)
	return nil
}

func storeError(err error) error {
	if errors.Is(err, archive.ErrDecode) {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return fmt.Errorf("%w: %w", ErrIO, err)
}
