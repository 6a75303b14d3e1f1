package staging

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/ruteri/contract-analysis-backend/interfaces"
)

// maxExtLen bounds the extension carried over from the declared filename.
const maxExtLen = 10

// Stager materializes uploaded documents into a scratch directory for the
// lifetime of one request.
type Stager struct {
	dir string
	log *slog.Logger
}

// NewStager creates a stager writing into dir. An empty dir selects a fixed
// contract-analysis-staging directory under os.TempDir.
func NewStager(dir string, log *slog.Logger) (*Stager, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "contract-analysis-staging")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &Stager{dir: dir, log: log}, nil
}

// Dir returns the scratch directory.
func (s *Stager) Dir() string {
	return s.dir
}

// StagedFile is a handle to one staged document. It stays readable any number
// of times until released.
type StagedFile struct {
	path string
	name string

	releaseOnce sync.Once
}

// Path returns the scratch location. It never contains the declared filename.
func (f *StagedFile) Path() string { return f.path }

// Name returns the declared filename, used only as the attachment display name.
func (f *StagedFile) Name() string { return f.name }

// ReadAll returns the staged bytes.
func (f *StagedFile) ReadAll() ([]byte, error) {
	return os.ReadFile(f.path)
}

// Acquire writes content to a uniquely named scratch file. The scratch name is a
// random UUID plus the sanitized extension of declaredName, so concurrent
// requests uploading the same filename never collide.
func (s *Stager) Acquire(declaredName string, content []byte) (*StagedFile, error) {
	if len(content) == 0 {
		return nil, interfaces.ErrEmptyUpload
	}

	path := filepath.Join(s.dir, uuid.NewString()+safeExt(declaredName))
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create staged file: %w", err)
	}

	_, werr := out.Write(content)
	cerr := out.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to write staged file: %w", err)
	}

	s.log.Debug("Staged uploaded file",
		slog.String("declared_name", declaredName),
		slog.String("path", path),
		slog.Int("size", len(content)))

	return &StagedFile{path: path, name: declaredName}, nil
}

// Release deletes the backing file. It is safe to call more than once and never
// fails: a deletion error is logged as a cleanup warning.
func (s *Stager) Release(f *StagedFile) {
	if f == nil {
		return
	}
	f.releaseOnce.Do(func() {
		err := os.Remove(f.path)
		switch {
		case err == nil:
			s.log.Debug("Removed staged file", slog.String("path", f.path))
		case errors.Is(err, os.ErrNotExist):
		default:
			s.log.Warn("Failed to remove staged file", slog.String("path", f.path), "err", err)
		}
	})
}

func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) < 2 || len(ext) > maxExtLen {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
