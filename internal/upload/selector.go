package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"spam-trainer/internal/domain"
)

// MaxFileSize is the largest accepted dataset, inclusive.
const MaxFileSize int64 = 16 * 1024 * 1024

// AllowedExtension is the only accepted dataset extension (case-insensitive).
const AllowedExtension = ".csv"

var (
	// ErrInvalidFileType is returned for files without a .csv extension.
	ErrInvalidFileType = errors.New("please upload a CSV file")
	// ErrFileTooLarge is returned for files above MaxFileSize.
	ErrFileTooLarge = errors.New("file size exceeds 16MB limit")
	// ErrEmptySelection is returned when no file was provided at all.
	ErrEmptySelection = errors.New("no file provided")
)

// Validate checks extension first, then size, and reports the first failure.
func Validate(name string, size, maxSize int64) error {
	if !strings.EqualFold(filepath.Ext(strings.TrimSpace(name)), AllowedExtension) {
		return ErrInvalidFileType
	}
	if size > maxSize {
		return ErrFileTooLarge
	}
	return nil
}

// Selector holds the single candidate dataset file.
type Selector struct {
	mu       sync.Mutex
	maxSize  int64
	current  domain.CandidateFile
	has      bool
	lastErr  error
	onChange func(hasCandidate bool)
}

// NewSelector creates an empty selector; maxSize <= 0 selects MaxFileSize.
func NewSelector(maxSize int64) *Selector {
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}
	return &Selector{maxSize: maxSize}
}

// OnChange registers a callback fired after every change of candidate presence.
func (s *Selector) OnChange(fn func(hasCandidate bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Select validates file and makes it the candidate. Any earlier candidate is
// dropped even when file is rejected.
func (s *Selector) Select(file domain.CandidateFile) (domain.CandidateFile, error) {
	if file.IsZero() {
		return domain.CandidateFile{}, ErrEmptySelection
	}

	err := Validate(file.Name, file.Size, s.maxSize)

	s.mu.Lock()
	if err != nil {
		s.current = domain.CandidateFile{}
		s.has = false
	} else {
		s.current = file
		s.has = true
	}
	s.lastErr = err
	has, notify := s.has, s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify(has)
	}
	if err != nil {
		return domain.CandidateFile{}, err
	}
	return file, nil
}

// Clear removes the candidate and any selection error.
func (s *Selector) Clear() {
	s.mu.Lock()
	s.current = domain.CandidateFile{}
	s.has = false
	s.lastErr = nil
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify(false)
	}
}

// ResetError forgets the last selection error but keeps the candidate.
func (s *Selector) ResetError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
}

// Current returns the candidate, if any.
func (s *Selector) Current() (domain.CandidateFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.has
}

// Err returns the error of the last selection attempt.
func (s *Selector) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// FromPath describes a file on disk; content is opened on demand.
func FromPath(path string) (domain.CandidateFile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return domain.CandidateFile{}, ErrEmptySelection
	}

	info, err := os.Stat(path)
	if err != nil {
		return domain.CandidateFile{}, fmt.Errorf("stat dataset: %w", err)
	}
	if info.IsDir() {
		return domain.CandidateFile{}, fmt.Errorf("dataset path is a directory: %s", path)
	}

	return domain.NewCandidateFile(filepath.Base(path), info.Size(), func() (io.ReadCloser, error) {
		return os.Open(path)
	}), nil
}

// FromBytes wraps in-memory content, e.g. a file dropped onto the webview.
func FromBytes(name string, data []byte) domain.CandidateFile {
	content := append([]byte(nil), data...)
	return domain.NewCandidateFile(name, int64(len(content)), func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(content)), nil
	})
}

// FromMultipart copies a browser upload received by the HTTP bridge. The
// content is read eagerly because the request's temporary storage does not
// outlive the handler. Uploads above maxSize are not read; only their size is kept.
func FromMultipart(header *multipart.FileHeader, maxSize int64) (domain.CandidateFile, error) {
	if header.Size > maxSize {
		return domain.NewCandidateFile(header.Filename, header.Size, func() (io.ReadCloser, error) {
			return nil, ErrFileTooLarge
		}), nil
	}

	f, err := header.Open()
	if err != nil {
		return domain.CandidateFile{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.CandidateFile{}, fmt.Errorf("read upload: %w", err)
	}
	return FromBytes(header.Filename, data), nil
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatSize renders a byte count with base-1024 units and at most two decimals.
func FormatSize(size int64) string {
	if size <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(size)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	value := math.Round(float64(size)/math.Pow(1024, float64(i))*100) / 100
	return strconv.FormatFloat(value, 'f', -1, 64) + " " + sizeUnits[i]
}
