package logging

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// logFile is the file sink. A write that would take the file past its
// size limit first moves it to <path>.1, shifting older backups up one
// number. Backups past MaxBackups or older than MaxAge days are removed.
type logFile struct {
	path     string
	limit    int64
	keep     int
	maxAge   time.Duration
	compress bool

	mu   sync.Mutex
	f    *os.File
	size int64

	// gzip runs off the writer's path; rotate and Close wait for it.
	gz sync.WaitGroup
}

func openLogFile(cfg *Config) (*logFile, error) {
	lf := &logFile{
		path:     cfg.FilePath,
		limit:    cfg.MaxSize << 20,
		keep:     max(cfg.MaxBackups, 0),
		compress: cfg.Compress,
	}
	if cfg.MaxAge > 0 {
		lf.maxAge = time.Duration(cfg.MaxAge) * 24 * time.Hour
	}
	if err := os.MkdirAll(filepath.Dir(lf.path), 0o750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	if err := lf.open(); err != nil {
		return nil, err
	}
	return lf, nil
}

func (lf *logFile) open() error {
	f, err := os.OpenFile(lf.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}
	lf.f, lf.size = f, info.Size()
	return nil
}

func (lf *logFile) Write(p []byte) (int, error) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.f == nil {
		if err := lf.open(); err != nil {
			return 0, err
		}
	}
	if lf.limit > 0 && lf.size > 0 && lf.size+int64(len(p)) > lf.limit {
		if err := lf.rotate(); err != nil {
			return 0, fmt.Errorf("rotate log file: %w", err)
		}
	}
	n, err := lf.f.Write(p)
	lf.size += int64(n)
	return n, err
}

// backup is the name of the n-th newest backup before compression.
func (lf *logFile) backup(n int) string {
	return lf.path + "." + strconv.Itoa(n)
}

func (lf *logFile) rotate() error {
	if err := lf.f.Close(); err != nil {
		return err
	}
	lf.f = nil
	// Backup 1 may still be under compression.
	lf.gz.Wait()

	if lf.keep == 0 {
		if err := os.Remove(lf.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return lf.open()
	}

	for n := lf.keep; n >= 1; n-- {
		for _, ext := range []string{"", ".gz"} {
			from := lf.backup(n) + ext
			var err error
			if n == lf.keep {
				err = os.Remove(from)
			} else {
				err = os.Rename(from, lf.backup(n+1)+ext)
			}
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
		}
	}
	if err := os.Rename(lf.path, lf.backup(1)); err != nil {
		return err
	}
	if lf.compress {
		lf.gz.Add(1)
		go func(name string) {
			defer lf.gz.Done()
			gzipFile(name)
		}(lf.backup(1))
	}
	lf.expire()
	return lf.open()
}

// expire removes backups older than maxAge. Backup 1 was just written.
func (lf *logFile) expire() {
	if lf.maxAge == 0 {
		return
	}
	cutoff := time.Now().Add(-lf.maxAge)
	for n := 2; n <= lf.keep; n++ {
		for _, name := range []string{lf.backup(n), lf.backup(n) + ".gz"} {
			if info, err := os.Stat(name); err == nil && info.ModTime().Before(cutoff) {
				os.Remove(name)
			}
		}
	}
}

// gzipFile replaces name with name.gz. On failure the plain file stays.
func gzipFile(name string) {
	src, err := os.Open(name)
	if err != nil {
		return
	}
	defer src.Close()

	dst, err := os.OpenFile(name+".gz", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
	if err != nil {
		return
	}
	zw := gzip.NewWriter(dst)
	_, err = io.Copy(zw, src)
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(name + ".gz")
		return
	}
	src.Close()
	os.Remove(name)
}

func (lf *logFile) Sync() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	if lf.f == nil {
		return nil
	}
	return lf.f.Sync()
}

// Close closes the file and waits for pending compression.
func (lf *logFile) Close() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	var err error
	if lf.f != nil {
		err = lf.f.Close()
		lf.f = nil
	}
	lf.gz.Wait()
	return err
}
