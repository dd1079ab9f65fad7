package eligibility

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"
)

// FileList loads the eligibility set from a JSON array of enrollment ids, the
// layout of matriculas_validas.json. A missing or malformed file reads as an
// empty list, so every enrollment is rejected until the file is fixed.
//
// The file is maintained outside this process, so each lookup stats it and
// re-reads it when its modification time or size changed since the last load.
type FileList struct {
	*Static
	path   string
	logger *slog.Logger

	reloadMu sync.Mutex
	stamp    fileStamp
}

// fileStamp identifies one version of the list on disk. The zero value means
// the file was missing.
type fileStamp struct {
	modTime time.Time
	size    int64
}

// NewFileList loads path and returns the oracle.
func NewFileList(path string, logger *slog.Logger) *FileList {
	if logger == nil {
		logger = slog.Default()
	}
	f := &FileList{Static: NewStatic(), path: path, logger: logger}
	if err := f.Reload(); err != nil {
		logger.Warn("eligibility list unavailable, rejecting all enrollments", "path", path, "error", err)
	}
	return f
}

// IsEligible reloads the list if the file changed, then checks membership.
func (f *FileList) IsEligible(ctx context.Context, enrollmentID string) (bool, error) {
	f.refresh()
	return f.Static.IsEligible(ctx, enrollmentID)
}

func (f *FileList) refresh() {
	f.reloadMu.Lock()
	defer f.reloadMu.Unlock()

	if statFile(f.path) == f.stamp {
		return
	}
	if err := f.reloadLocked(); err != nil {
		f.logger.Warn("eligibility list changed and is unusable, rejecting all enrollments", "path", f.path, "error", err)
	}
}

// Reload re-reads the file. On failure the set is emptied and the error returned.
func (f *FileList) Reload() error {
	f.reloadMu.Lock()
	defer f.reloadMu.Unlock()
	return f.reloadLocked()
}

func (f *FileList) reloadLocked() error {
	f.stamp = statFile(f.path)
	ids, err := readIDs(f.path)
	if err != nil {
		f.Replace(nil)
		return err
	}
	f.Replace(ids)
	f.logger.Info("eligibility list loaded", "path", f.path, "count", f.Len())
	return nil
}

func statFile(path string) fileStamp {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{}
	}
	return fileStamp{modTime: info.ModTime(), size: info.Size()}
}

func readIDs(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("eligibility file %s: %w", path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("read eligibility file %s: %w", path, err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("parse eligibility file %s: %w", path, err)
	}
	return ids, nil
}
