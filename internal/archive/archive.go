// Package archive reads and writes the zip archive that backs the virtual
// filesystem. It knows nothing about paths beyond member names.
package archive

import (
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"vshell/internal/logging"

	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
)

var (
	logger = logging.GetLogger().WithPrefix("archive")

	// ErrDecode marks a corrupt archive or a member that is not UTF-8 text
	ErrDecode = stderrors.New("archive member is not decodable")
)

// Member is one named entry of the archive.
type Member struct {
	Name    string
	Content string
}

// IsDir reports whether the member is a directory marker.
func (m Member) IsDir() bool {
	return strings.HasSuffix(m.Name, "/")
}

// Store handles loading and saving the archive at a fixed path.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store for the archive at path. Relative paths are
// resolved against the current working directory.
func NewStore(path string) (*Store, error) {
	logger.Debug("Creating new archive store with path: %s", path)

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve archive path %s", path)
	}
	logger.Debug("Resolved archive path: %s", absPath)

	return &Store{path: absPath}, nil
}

// Path returns the absolute archive path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the archive file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load returns every non-directory member in archive order, decoded as text.
func (s *Store) Load() ([]Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger.Debug("Loading archive from: %s", s.path)

	r, err := zip.OpenReader(s.path)
	if err != nil {
		if isFormatError(err) {
			return nil, errors.Wrapf(withDecode(err), "failed to open archive %s", s.path)
		}
		return nil, errors.Wrapf(err, "failed to open archive %s", s.path)
	}
	defer r.Close()

	members := make([]Member, 0, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			logger.Trace("Skipping directory member: %q", f.Name)
			continue
		}

		data, err := readMember(f)
		if err != nil {
			if isFormatError(err) {
				err = withDecode(err)
			}
			return nil, errors.Wrapf(err, "failed to read member %s", f.Name)
		}
		if !utf8.Valid(data) {
			return nil, errors.Wrapf(ErrDecode, "member %s is not valid UTF-8", f.Name)
		}

		logger.Trace("Loaded member %q (%d bytes)", f.Name, len(data))
		members = append(members, Member{Name: f.Name, Content: string(data)})
	}

	logger.Info("Archive loaded: %d members", len(members))
	return members, nil
}

// Save overwrites the archive with one member per entry. Directory markers
// are written as zero-length members. The previous archive is truncated
// first, so a failure part way leaves it incomplete.
func (s *Store) Save(members []Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger.Debug("Saving %d members to: %s", len(members), s.path)

	f, err := os.Create(s.path)
	if err != nil {
		return errors.Wrapf(err, "failed to create archive %s", s.path)
	}

	if err := writeMembers(f, members); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write archive %s", s.path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close archive %s", s.path)
	}

	// Verify the write
	info, err := os.Stat(s.path)
	if err != nil {
		return errors.Wrap(err, "failed to verify written archive")
	}
	if info.Size() == 0 {
		return errors.New("archive is empty after write")
	}

	logger.Debug("Archive saved and verified successfully (%d bytes)", info.Size())
	return nil
}

func writeMembers(w io.Writer, members []Member) error {
	zw := zip.NewWriter(w)
	now := time.Now()

	for _, m := range members {
		header := &zip.FileHeader{
			Name:     m.Name,
			Method:   zip.Deflate,
			Modified: now,
		}
		if m.IsDir() {
			header.Method = zip.Store
		}

		mw, err := zw.CreateHeader(header)
		if err != nil {
			return errors.Wrapf(err, "failed to add member %s", m.Name)
		}
		if m.IsDir() {
			continue
		}
		if _, err := io.WriteString(mw, m.Content); err != nil {
			return errors.Wrapf(err, "failed to write member %s", m.Name)
		}
	}

	return zw.Close()
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func isFormatError(err error) bool {
	return stderrors.Is(err, zip.ErrFormat) ||
		stderrors.Is(err, zip.ErrAlgorithm) ||
		stderrors.Is(err, zip.ErrChecksum)
}

type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return e.err.Error() }

func (e *decodeError) Is(target error) bool { return target == ErrDecode }

func (e *decodeError) Unwrap() error { return e.err }

// withDecode marks err as a decode failure while keeping it unwrappable.
func withDecode(err error) error {
	return &decodeError{err: err}
}
