// Package fsutil provides file system helpers on top of afero so that the
// same code walks the real disk in production and a MemMapFs in tests.
package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/afero"
)

// FindFilesByExtension searches the given root path for all files ending with
// the specified extension. The root may be a single file, in which case it is
// returned when it matches. Results are sorted for deterministic loading.
func FindFilesByExtension(fsys afero.Fs, rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("extension must not be empty")
	}

	info, err := fsys.Stat(rootPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		if strings.HasSuffix(info.Name(), extension) {
			return []string{rootPath}, nil
		}
		return nil, nil
	}

	var files []string
	err = afero.Walk(fsys, rootPath, func(path string, fi fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fi.IsDir() && strings.HasSuffix(fi.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// ReadIfExists reads the whole file at path. The boolean result is false,
// with a nil error, when no regular file exists there. A path running through
// a regular file (ENOTDIR) counts as missing too.
func ReadIfExists(fsys afero.Fs, path string) ([]byte, bool, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if info.IsDir() {
		return nil, false, nil
	}

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// JoinRoot joins a relative, slash separated path onto root. The relative
// part is cleaned as if it were absolute, so ".." segments cannot climb
// above root.
func JoinRoot(root, rel string) string {
	rel = filepath.Clean(string(filepath.Separator) + filepath.FromSlash(rel))
	return filepath.Join(root, rel)
}
