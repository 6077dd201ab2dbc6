package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/questboard/internal/domain/ledger"
	"github.com/okian/questboard/pkg/logger"
	"github.com/okian/questboard/pkg/metrics"
)

// FileStore keeps the ledger in a single JSON file. There is no lock:
// concurrent writers race and the last rename wins.
type FileStore struct {
	path   string
	mode   os.FileMode
	logger logger.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string, opts ...Option) *FileStore {
	s := &FileStore{
		path: path,
		mode: 0o644,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	return s
}

// Path returns the ledger file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the ledger. A missing file is an empty ledger; so is a file
// that cannot be parsed, which is logged as a warning.
func (s *FileStore) Load(ctx context.Context) (*ledger.Ledger, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug(ctx, "ledger file not found, starting empty", logger.String("path", s.path))
		metrics.UpdateLedgerSize(0, 0)
		return ledger.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLedgerRead, s.path, err)
	}

	l, err := Decode(data)
	if err != nil {
		s.logger.Warn(ctx, "ledger file is malformed, starting empty",
			logger.String("path", s.path),
			logger.Error(err),
		)
		l = ledger.New()
	}
	metrics.UpdateLedgerSize(len(l.Users), len(l.Awards))
	return l, nil
}

// Save writes l atomically: encode, write a temp file next to the target,
// fsync, then rename over the target.
func (s *FileStore) Save(ctx context.Context, l *ledger.Ledger) error {
	start := time.Now()
	data, err := Encode(l)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerWrite, err)
	}
	if err := s.writeAtomic(data); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrLedgerWrite, s.path, err)
	}

	metrics.RecordLedgerSave(float64(time.Since(start).Microseconds()) / 1000)
	metrics.UpdateLedgerSize(len(l.Users), len(l.Awards))
	s.logger.Debug(ctx, "ledger saved",
		logger.String("path", s.path),
		logger.Int("users", len(l.Users)),
		logger.Int("awards", len(l.Awards)),
	)
	return nil
}

func (s *FileStore) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating ledger directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".ledger-*.json")
	if err != nil {
		return fmt.Errorf("creating temp ledger file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("writing ledger data: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("syncing ledger data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp ledger file: %w", err)
	}
	if err := os.Chmod(tmpPath, s.mode); err != nil {
		return fmt.Errorf("setting ledger file mode: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("renaming ledger file to %s: %w", s.path, err)
	}

	success = true
	return nil
}
