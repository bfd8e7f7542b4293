package fileops

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DirectoryScanOptions configures a single-level directory scan.
type DirectoryScanOptions struct {
	// IncludeHidden determines whether files whose name starts with '.' are included.
	IncludeHidden bool

	// FileFilter is an optional predicate on the base filename. If nil, every
	// regular file is included.
	FileFilter func(filename string) bool

	// SkipUnreadable makes the scan skip entries it cannot stat instead of
	// failing the whole scan.
	SkipUnreadable bool
}

// FileInfo describes a regular file discovered by ScanDirectory.
type FileInfo struct {
	// Name is the base filename
	Name string

	// Path is the absolute path of the file
	Path string

	// Size is the file size in bytes
	Size int64

	// ModTime is the last modification time
	ModTime time.Time

	// Mode contains the file mode and permission bits
	Mode os.FileMode
}

// ScanDirectory lists the regular files directly inside dirPath (no recursion).
//
// Parameters:
//   - dirPath: Directory to scan (relative, absolute, or starting with "~/")
//   - opts: Scan options (nil includes every non-hidden regular file)
//
// Returns:
//   - []FileInfo: Matching files in directory order
//   - error: Setup or read errors; a missing directory yields an error
//     matching fs.ErrNotExist
//
// Security considerations:
//   - Entries are resolved through an os.Root anchored at dirPath, so symlinks
//     pointing outside the directory are never followed
//   - Directories, devices, sockets and pipes are never returned
//
// Usage example:
//
//	files, err := fileops.ScanDirectory("/var/log/myapp", &fileops.DirectoryScanOptions{
//	    FileFilter: func(name string) bool { return strings.Contains(name, ".log") },
//	})
func ScanDirectory(dirPath string, opts *DirectoryScanOptions) ([]FileInfo, error) {
	if opts == nil {
		opts = &DirectoryScanOptions{SkipUnreadable: true}
	}

	if strings.TrimSpace(dirPath) == "" {
		return nil, fmt.Errorf("scan path cannot be empty")
	}

	absPath, err := filepath.Abs(ExpandPath(dirPath))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve scan path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("cannot access scan path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan path is not a directory: %s", absPath)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("cannot create secure scan root: %w", err)
	}
	defer root.Close()

	dir, err := root.Open(".")
	if err != nil {
		return nil, fmt.Errorf("failed to open directory %s: %w", absPath, err)
	}
	defer dir.Close()

	entries, err := dir.ReadDir(-1)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", absPath, err)
	}

	var results []FileInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !shouldIncludeFile(name, opts) {
			continue
		}

		// Stat through the root so symlinks are followed only while they stay inside it
		fi, err := root.Stat(name)
		if err != nil {
			if opts.SkipUnreadable || errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to get file info for %s: %w", name, err)
		}
		if !fi.Mode().IsRegular() {
			continue
		}

		results = append(results, FileInfo{
			Name:    name,
			Path:    filepath.Join(absPath, name),
			Size:    fi.Size(),
			ModTime: fi.ModTime(),
			Mode:    fi.Mode(),
		})
	}

	return results, nil
}

// shouldIncludeFile applies the hidden-file rule and the optional filter.
func shouldIncludeFile(name string, opts *DirectoryScanOptions) bool {
	if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
		return false
	}
	if opts.FileFilter != nil {
		return opts.FileFilter(name)
	}
	return true
}
