package build

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// writeFile atomically replaces path with content, creating parent directories
func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}
	if err := atomic.WriteFile(path, strings.NewReader(content)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ErrUnsafeOutDir is returned when the output directory overlaps a
// directory the build must not touch
var ErrUnsafeOutDir = errors.New("unsafe output directory")

// checkOutDir rejects an output directory that equals or sits inside one of
// the source directories. With clean set it also rejects one that contains a
// source directory, the filesystem root, and the working directory or any of
// its ancestors.
func checkOutDir(dir string, sources []string, clean bool) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	if clean {
		if abs == filepath.Dir(abs) {
			return fmt.Errorf("%w: refusing to clean the filesystem root", ErrUnsafeOutDir)
		}
		if wd, err := os.Getwd(); err == nil && within(wd, abs) {
			return fmt.Errorf("%w: refusing to clean %s, it contains the working directory", ErrUnsafeOutDir, abs)
		}
	}

	for _, src := range sources {
		if src == "" {
			continue
		}
		srcAbs, err := filepath.Abs(src)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", src, err)
		}
		if within(abs, srcAbs) {
			return fmt.Errorf("%w: %s is inside source directory %s", ErrUnsafeOutDir, abs, srcAbs)
		}
		if clean && within(srcAbs, abs) {
			return fmt.Errorf("%w: refusing to clean %s, it contains source directory %s", ErrUnsafeOutDir, abs, srcAbs)
		}
	}
	return nil
}

// within reports whether path is dir or lies below it. Both must be absolute.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// cleanDir empties dir after checking it against the working directory and
// the source directories
func cleanDir(dir string, sources []string) error {
	if err := checkOutDir(dir, sources, true); err != nil {
		return err
	}
	abs, _ := filepath.Abs(dir)
	if err := os.RemoveAll(abs); err != nil {
		return fmt.Errorf("failed to remove output directory %s: %w", abs, err)
	}
	return nil
}

// copyDirContents copies every file below src into dst and returns how many
// were copied. A missing src copies nothing.
func copyDirContents(src, dst string) (int, error) {
	if _, err := os.Stat(src); errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}

	count := 0
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for %s: %w", path, err)
		}
		dstPath := filepath.Join(dst, relPath)

		if d.IsDir() {
			if err := os.MkdirAll(dstPath, os.ModePerm); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dstPath, err)
			}
			return nil
		}
		if err := copyFile(path, dstPath); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}

// copyFile atomically copies srcFile to dstFile keeping its permissions
func copyFile(srcFile, dstFile string) error {
	srcF, err := os.Open(srcFile)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", srcFile, err)
	}
	defer srcF.Close()

	if err := atomic.WriteFile(dstFile, srcF); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", srcFile, dstFile, err)
	}

	info, err := srcF.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", srcFile, err)
	}
	if err := os.Chmod(dstFile, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", dstFile, err)
	}
	return nil
}
