package fileops

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// BackupDirName is the per-coin directory archived files are moved into.
const BackupDirName = "bkp"

// documentStampLayout formats document backup names (coin_type_20240131_154500.html).
const documentStampLayout = "20060102_150405"

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// MoveFile renames src to dst, creating dst's directory and overwriting an
// existing dst. Moves across filesystems fall back to a verified copy. A
// missing src is not an error when dst is already present.
func MoveFile(src, dst string) error {
	if src == dst {
		return nil
	}
	if !exists(src) {
		if exists(dst) {
			return nil
		}
		return fmt.Errorf("move %s: %w", filepath.Base(src), fs.ErrNotExist)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("move %s: %w", filepath.Base(src), err)
	}
	if err := CopyFileVerified(src, dst); err != nil {
		return fmt.Errorf("copy %s across devices: %w", filepath.Base(src), err)
	}
	return os.Remove(src)
}

// MoveToBackup archives path as <dir>/bkp/<name>, replacing an older copy.
// It returns the backup path, or "" when path does not exist.
func MoveToBackup(path string) (string, error) {
	if !exists(path) {
		return "", nil
	}
	dest := filepath.Join(filepath.Dir(path), BackupDirName, filepath.Base(path))
	if err := MoveFile(path, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// BackupTo archives path as <dir>/bkp/<group>/<name>. It returns the backup
// path, or "" when path does not exist.
func BackupTo(path, group string) (string, error) {
	if !exists(path) {
		return "", nil
	}
	dest := filepath.Join(filepath.Dir(path), BackupDirName, group, filepath.Base(path))
	if err := MoveFile(path, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// BackupDocument copies the document at docPath to
// <dir>/bkp/coin_type_<timestamp>.html and returns the copy's path, or ""
// when there is no document.
func BackupDocument(docPath string, at time.Time) (string, error) {
	if !exists(docPath) {
		return "", nil
	}
	dir := filepath.Join(filepath.Dir(docPath), BackupDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}
	stem := filepath.Base(docPath)
	stem = stem[:len(stem)-len(filepath.Ext(stem))]
	dest := filepath.Join(dir, fmt.Sprintf("%s_%s%s", stem, at.Format(documentStampLayout), filepath.Ext(docPath)))
	if err := CopyFile(docPath, dest); err != nil {
		return "", fmt.Errorf("backup document: %w", err)
	}
	return dest, nil
}
