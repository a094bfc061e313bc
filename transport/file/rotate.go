// rotate.go keeps the batch output file from growing without bound. Once the
// active file would exceed MaxBytes it is shifted to a numbered suffix
// (ifdom.json → ifdom.json.1, .1 → .2, …) and a fresh file is opened; at most
// MaxBackups shifted files survive.
//
// RotatingFile is an io.WriteCloser, so it plugs straight into Config.Writer
// of the writer transport.
package file

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// ─────────────────────────────────────────────────────────────────────────────
// RotateConfig
// ─────────────────────────────────────────────────────────────────────────────

// RotateConfig controls output file rotation.
type RotateConfig struct {
	// FilePath is the active file name (required).
	FilePath string

	// MaxBytes triggers rotation when a write would push the active file
	// past this size. Zero disables rotation entirely.
	MaxBytes int64

	// MaxBackups is the number of shifted files to keep. Zero keeps all.
	MaxBackups int
}

// ─────────────────────────────────────────────────────────────────────────────
// RotatingFile
// ─────────────────────────────────────────────────────────────────────────────

// RotatingFile writes to the active file and rotates it on size. Safe for
// concurrent use.
type RotatingFile struct {
	mu     sync.Mutex
	cfg    RotateConfig
	file   *os.File
	size   int64
	logger *slog.Logger
}

// NewRotatingFile opens (or creates, including parent directories) the file
// at cfg.FilePath. The caller must Close it when finished.
func NewRotatingFile(cfg RotateConfig, logger *slog.Logger) (*RotatingFile, error) {
	if cfg.FilePath == "" {
		return nil, fmt.Errorf("transport/file: rotate: FilePath is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(noopWriter{}, nil))
	}

	dir := filepath.Dir(cfg.FilePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("transport/file: rotate: mkdir %s: %w", dir, err)
	}

	rf := &RotatingFile{
		cfg:    cfg,
		logger: logger,
	}
	if err := rf.openActive(); err != nil {
		return nil, err
	}
	return rf, nil
}

// Write implements io.Writer, rotating first when the write would exceed
// MaxBytes.
func (rf *RotatingFile) Write(p []byte) (int, error) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.cfg.MaxBytes > 0 && rf.size+int64(len(p)) > rf.cfg.MaxBytes {
		if err := rf.rotate(); err != nil {
			// Keep writing to the oversized file; dropping batches is worse.
			rf.logger.Error("transport/file: rotate failed", "error", err.Error())
		}
	}

	n, err := rf.file.Write(p)
	rf.size += int64(n)
	return n, err
}

// Close closes the active file.
func (rf *RotatingFile) Close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.file != nil {
		return rf.file.Close()
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ─────────────────────────────────────────────────────────────────────────────

// openActive opens the active file in append mode and records its size.
func (rf *RotatingFile) openActive() error {
	f, err := os.OpenFile(rf.cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("transport/file: rotate: open %s: %w", rf.cfg.FilePath, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("transport/file: rotate: stat %s: %w", rf.cfg.FilePath, err)
	}
	rf.file = f
	rf.size = info.Size()
	return nil
}

// rotate shifts every backup up one slot, moves the active file to .1, and
// opens a fresh active file. Rename/remove errors on individual backups are
// logged and skipped; a gap in the sequence is harmless.
func (rf *RotatingFile) rotate() error {
	if rf.file != nil {
		if err := rf.file.Close(); err != nil {
			rf.logger.Warn("transport/file: rotate: close error", "error", err.Error())
		}
		rf.file = nil
	}

	base := rf.cfg.FilePath

	// The slot past MaxBackups is about to be overwritten by the shift.
	if rf.cfg.MaxBackups > 0 {
		_ = os.Remove(fmt.Sprintf("%s.%d", base, rf.cfg.MaxBackups))
	}

	limit := rf.cfg.MaxBackups
	if limit == 0 {
		limit = rf.highestBackup()
	}
	for i := limit; i >= 1; i-- {
		src := fmt.Sprintf("%s.%d", base, i)
		dst := fmt.Sprintf("%s.%d", base, i+1)
		_ = os.Rename(src, dst)
	}

	if err := os.Rename(base, base+".1"); err != nil && !os.IsNotExist(err) {
		rf.logger.Warn("transport/file: rotate: rename error", "error", err.Error())
	}

	if rf.cfg.MaxBackups > 0 {
		rf.prune()
	}

	rf.logger.Info("transport/file: rotated", "file", base)

	rf.size = 0
	return rf.openActive()
}

// highestBackup returns the last slot of the contiguous backup sequence.
func (rf *RotatingFile) highestBackup() int {
	base := rf.cfg.FilePath
	n := 0
	for i := 1; ; i++ {
		if _, err := os.Stat(fmt.Sprintf("%s.%d", base, i)); os.IsNotExist(err) {
			break
		}
		n = i
	}
	return n
}

// prune removes backups in slots past MaxBackups.
func (rf *RotatingFile) prune() {
	base := rf.cfg.FilePath
	for i := rf.cfg.MaxBackups + 1; ; i++ {
		name := fmt.Sprintf("%s.%d", base, i)
		if err := os.Remove(name); err != nil {
			break
		}
		rf.logger.Debug("transport/file: pruned old backup", "file", name)
	}
}
