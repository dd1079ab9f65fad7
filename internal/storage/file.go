package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"ouvidoria/backend/internal/models"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// FileStore keeps every complaint in a single JSON array on disk. Each write
// loads the current snapshot, mutates it in memory, writes the result to a
// temporary file in the same directory and renames it over the original, so a
// crash mid-write leaves either the old or the new snapshot, never a torn one.
//
// The whole cycle runs under two locks: an RWMutex for goroutines of this
// process and an flock on <path>.lock for other processes (the admin CLI
// against a running server). Writers are exclusive, readers share.
type FileStore struct {
	path     string
	lockPath string
	mu       sync.RWMutex
	logger   *slog.Logger
}

const lockRetryDelay = 10 * time.Millisecond

// syncDir flushes a directory entry; swapped in tests.
var syncDir = func(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// NewFileStore returns a FileStore writing to path, creating its directory.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("file store path is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileStore{path: path, lockPath: path + ".lock", logger: logger}, nil
}

// lock takes the in-process and the cross-process lock, exclusive or shared.
// The returned func releases both.
func (f *FileStore) lock(ctx context.Context, exclusive bool) (func(), error) {
	fl := flock.New(f.lockPath)
	if exclusive {
		f.mu.Lock()
	} else {
		f.mu.RLock()
	}
	release := func() {
		if exclusive {
			f.mu.Unlock()
		} else {
			f.mu.RUnlock()
		}
	}

	var (
		ok  bool
		err error
	)
	if exclusive {
		ok, err = fl.TryLockContext(ctx, lockRetryDelay)
	} else {
		ok, err = fl.TryRLockContext(ctx, lockRetryDelay)
	}
	if err == nil && !ok {
		err = errors.New("lock not acquired")
	}
	if err != nil {
		release()
		return nil, fmt.Errorf("lock %s: %w", f.lockPath, err)
	}

	return func() {
		if err := fl.Unlock(); err != nil {
			f.logger.Warn("release snapshot lock", "path", f.lockPath, "error", err)
		}
		release()
	}, nil
}

// Path returns the snapshot location.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) load() ([]models.Complaint, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.Complaint{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnreadable, f.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.Complaint{}, nil
	}
	var records []models.Complaint
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrUnreadable, f.path, err)
	}
	return records, nil
}

func (f *FileStore) persist(records []models.Complaint) error {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".complaints-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	// atomically move into place
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	committed = true

	// The rename is durable only once the directory entry is flushed. The new
	// snapshot is already in place at this point, so a failure is only logged.
	if err := syncDir(filepath.Dir(f.path)); err != nil {
		f.logger.Warn("sync snapshot directory", "path", f.path, "error", err)
	}
	return nil
}

func (f *FileStore) Append(ctx context.Context, c *models.Complaint) error {
	unlock, err := f.lock(ctx, true)
	if err != nil {
		return fmt.Errorf("append %s: %w", c.Protocol, err)
	}
	defer unlock()

	records, err := f.load()
	if err != nil {
		return fmt.Errorf("append %s: %w", c.Protocol, err)
	}
	if indexOf(records, c.Protocol) >= 0 {
		return fmt.Errorf("append %s: %w", c.Protocol, ErrDuplicateProtocol)
	}
	records = append(records, *c)
	if err := f.persist(records); err != nil {
		return fmt.Errorf("append %s: %w", c.Protocol, err)
	}
	return nil
}

func (f *FileStore) Get(ctx context.Context, protocol string) (*models.Complaint, error) {
	unlock, err := f.lock(ctx, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	records, err := f.load()
	if err != nil {
		return nil, err
	}
	if i := indexOf(records, protocol); i >= 0 {
		c := records[i]
		return &c, nil
	}
	return nil, nil
}

func (f *FileStore) FindByNationalID(ctx context.Context, nationalID string) ([]models.Complaint, error) {
	return f.find(ctx, func(c *models.Complaint) bool { return c.NationalID == nationalID })
}

func (f *FileStore) FindByEnrollmentID(ctx context.Context, enrollmentID string) ([]models.Complaint, error) {
	return f.find(ctx, func(c *models.Complaint) bool { return c.EnrollmentID == enrollmentID })
}

func (f *FileStore) find(ctx context.Context, keep func(*models.Complaint) bool) ([]models.Complaint, error) {
	unlock, err := f.lock(ctx, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	records, err := f.load()
	if err != nil {
		return nil, err
	}
	return filter(records, keep), nil
}

func (f *FileStore) UpdateResponse(ctx context.Context, protocol, response string, at time.Time) error {
	unlock, err := f.lock(ctx, true)
	if err != nil {
		return fmt.Errorf("update %s: %w", protocol, err)
	}
	defer unlock()

	records, err := f.load()
	if err != nil {
		return fmt.Errorf("update %s: %w", protocol, err)
	}
	i := indexOf(records, protocol)
	if i < 0 {
		return fmt.Errorf("update %s: %w", protocol, ErrNotFound)
	}
	records[i].Respond(response, at)
	if err := f.persist(records); err != nil {
		return fmt.Errorf("update %s: %w", protocol, err)
	}
	f.logger.Debug("complaint snapshot rewritten", "path", f.path, "records", len(records))
	return nil
}

func (f *FileStore) List(ctx context.Context) ([]models.Complaint, error) {
	unlock, err := f.lock(ctx, false)
	if err != nil {
		return nil, err
	}
	defer unlock()

	records, err := f.load()
	if err != nil {
		return nil, err
	}
	return newestFirst(records), nil
}
