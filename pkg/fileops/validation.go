package fileops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateFileName checks that name is a bare filename: non-empty, without
// path separators, traversal sequences or NUL bytes.
//
// Parameters:
//   - name: The logical file name to validate
//
// Returns:
//   - error: Validation errors if the name could address anything outside a
//     single directory
//
// Usage example:
//
//	if err := fileops.ValidateFileName("../../etc/passwd"); err != nil {
//	    return fmt.Errorf("unsafe file name: %w", err)
//	}
func ValidateFileName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("file name cannot be empty")
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("file name contains NUL byte")
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("file name must not contain path separators")
	}
	// Without separators, only the dot entries can climb out of a directory
	if name == "." || name == ".." {
		return fmt.Errorf("path traversal not allowed")
	}
	return nil
}

// ValidateFileInDirectory validates that filePath lies inside baseDir and
// names an existing regular file. Symlinks are resolved and their final
// destination must stay inside baseDir as well.
//
// Parameters:
//   - filePath: Full path to the file to validate
//   - baseDir: Base directory that should contain the file
//
// Returns:
//   - error: Validation errors if the file is outside the directory or inaccessible
//
// Usage example:
//
//	if err := fileops.ValidateFileInDirectory("/logs/app.log", "/logs"); err != nil {
//	    return fmt.Errorf("file validation failed: %w", err)
//	}
func ValidateFileInDirectory(filePath, baseDir string) error {
	absFilePath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("cannot resolve file path: %w", err)
	}

	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("cannot resolve base directory: %w", err)
	}

	if !isWithin(absBaseDir, absFilePath) {
		return fmt.Errorf("file is not within base directory")
	}

	info, err := os.Lstat(absFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", filepath.Base(filePath))
		}
		return fmt.Errorf("cannot access file: %w", err)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(absFilePath)
		if err != nil {
			return fmt.Errorf("cannot resolve symlink: %w", err)
		}
		resolvedBase, err := filepath.EvalSymlinks(absBaseDir)
		if err != nil {
			resolvedBase = absBaseDir
		}
		if !isWithin(resolvedBase, resolved) {
			return fmt.Errorf("symlink resolves outside base directory")
		}
		if info, err = os.Stat(resolved); err != nil {
			return fmt.Errorf("cannot access symlink target: %w", err)
		}
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("path is not a regular file: %s", filepath.Base(filePath))
	}

	return nil
}

// isWithin reports whether target is base or lies below it.
func isWithin(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ExpandPath expands a path that starts with "~/" to the user's home directory.
//
// Usage example:
//
//	expanded := fileops.ExpandPath("~/logs")
//	// Returns something like "/home/user/logs"
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
