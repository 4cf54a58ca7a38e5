package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LockFileName is created inside the cache directory while a build runs.
const LockFileName = ".inkwell-build.lock"

type FileLock struct {
	file *os.File
	path string
}

// AcquireBuildLock takes an exclusive, non-blocking lock so two builds never
// write the same public directory at once.
func AcquireBuildLock(dir string) (*FileLock, error) {
	lockPath := filepath.Join(dir, LockFileName)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}

	if err := tryLock(file); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("another build is in progress (lock file: %s)", lockPath)
	}

	stamp := fmt.Sprintf("%d\n%s", os.Getpid(), time.Now().Format(time.RFC3339))
	_, _ = file.WriteAt([]byte(stamp), 0)

	return &FileLock{file: file, path: lockPath}, nil
}

func (fl *FileLock) Release() error {
	if fl == nil || fl.file == nil {
		return nil
	}

	_ = unlock(fl.file)
	err := fl.file.Close()
	fl.file = nil

	_ = os.Remove(fl.path)
	return err
}
