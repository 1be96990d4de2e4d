// Package filesys provides small file-system utility functions shared by
// the storage engine: creating the data directory, enumerating segment
// files, and reading/writing/removing individual files.
package filesys

import (
	"errors"
	"os"
	"path/filepath"
)

var ErrIsNotDir = errors.New("path isn't a directory")

// CreateDir creates a directory at dirPath with the given permissions.
//
// If the directory already exists:
//   - If force is true, it proceeds without error.
//   - If force is false, it returns an error.
//
// It also returns an error if the existing path is a file, not a directory.
func CreateDir(dirPath string, permission os.FileMode, force bool) error {
	stat, err := os.Stat(dirPath)
	if !force {
		if err == nil {
			return &os.PathError{Op: "mkdir", Path: dirPath, Err: os.ErrExist}
		}
		if !os.IsNotExist(err) {
			return err
		}
	}
	if stat != nil && !stat.IsDir() {
		return ErrIsNotDir
	}
	if err := os.MkdirAll(dirPath, permission); err != nil {
		return err
	}
	return os.Chmod(dirPath, permission)
}

// ReadDir returns the paths matching dirName, which may contain glob
// patterns (e.g. "mydir/*.log").
func ReadDir(dirName string) ([]string, error) {
	return filepath.Glob(dirName)
}

// WriteFile writes contents to filePath, creating or truncating it.
func WriteFile(filePath string, permission os.FileMode, contents []byte) error {
	return os.WriteFile(filePath, contents, permission)
}

// ReadFile reads the entire content of filePath.
func ReadFile(filePath string) ([]byte, error) {
	return os.ReadFile(filePath)
}

// DeleteFile removes the file at filePath.
func DeleteFile(filePath string) error {
	return os.Remove(filePath)
}

// Exists reports whether a file or directory exists at path.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
