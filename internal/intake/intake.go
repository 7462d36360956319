package intake

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyUpload       = errors.New("uploaded file is empty")
)

// StagedFile is an uploaded audio stream persisted to a temporary path
// for the engine to read. It must not outlive its request: callers
// remove it on every exit path.
type StagedFile struct {
	Path   string
	Name   string
	Size   int64
	Digest string
}

// Remove deletes the staged file. A missing file is not an error.
func (f *StagedFile) Remove() error {
	err := os.Remove(f.Path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Stager validates incoming uploads and writes them to uniquely named
// files under its temp directory.
type Stager struct {
	tempDir string
	allowed map[string]struct{}
}

func NewStager(tempDir string, allowedExtensions []string) *Stager {
	allowed := make(map[string]struct{}, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			allowed[ext] = struct{}{}
		}
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Stager{tempDir: tempDir, allowed: allowed}
}

// Validate checks the declared filename against the extension
// allow-list without touching the stream. Content is not sniffed.
func (s *Stager) Validate(fileName string) error {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if _, ok := s.allowed[ext]; !ok {
		return fmt.Errorf("%w: %q (allowed: %s)", ErrUnsupportedFormat, filepath.Ext(fileName), s.allowedList())
	}
	return nil
}

// Stage validates the declared filename and writes the stream to a
// uuid-named file, computing the content digest on the way through.
// The staged name never derives from the client filename, so
// concurrent requests cannot collide.
func (s *Stager) Stage(r io.Reader, fileName string) (*StagedFile, error) {
	if err := s.Validate(fileName); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	path := filepath.Join(s.tempDir, "upload-"+uuid.NewString()+ext)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}

	hasher := md5.New()
	size, err := io.Copy(dst, io.TeeReader(r, hasher))
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write staged file: %w", err)
	}
	if size == 0 {
		_ = os.Remove(path)
		return nil, ErrEmptyUpload
	}

	return &StagedFile{
		Path:   path,
		Name:   fileName,
		Size:   size,
		Digest: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

func (s *Stager) allowedList() string {
	exts := make([]string, 0, len(s.allowed))
	for ext := range s.allowed {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}
