// Package fileops provides read-only file discovery with defense-in-depth
// validation.
//
// # Directory Scanning
//
// ScanDirectory lists the regular files directly inside one directory. It
// resolves entries through an os.Root so a symlink that points outside the
// scanned directory is never followed, and it never returns directories,
// devices, sockets or pipes.
//
// # Validation Patterns
//
// Callers resolving a user-supplied file name against a directory should
// combine the checks in this order:
//
// 1. **Name Security**: ValidateFileName() - rejects separators, traversal and NUL bytes
// 2. **Containment**: ValidateFileInDirectory() - ensures the resolved file stays inside the directory
//
// # Example: Resolving a Log File
//
//	if err := fileops.ValidateFileName(name); err != nil {
//	    return "", fmt.Errorf("file name: %w", err)
//	}
//	path := filepath.Join(dir, name)
//	if err := fileops.ValidateFileInDirectory(path, dir); err != nil {
//	    return "", fmt.Errorf("directory containment: %w", err)
//	}
package fileops
