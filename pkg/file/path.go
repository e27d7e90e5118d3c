package file

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

func ReplaceExt(path, ext string) string {
	if path == "" {
		return path
	}

	dir := filepath.Dir(path)
	filename := filepath.Base(path)

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	lastDot := strings.LastIndex(filename, ".")
	if lastDot <= 0 {
		return filepath.Join(dir, filename+ext)
	}

	return filepath.Join(dir, filename[:lastDot]+ext)
}

// Stem returns the base name of path without its last extension.
// e.g. "/media/show.mkv" -> "show"
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Sibling returns a file next to path whose extension is replaced by
// ".<qualifier><ext>". An empty qualifier behaves like ReplaceExt.
// e.g. Sibling("/m/x.mkv", "fi", ".srt") -> "/m/x.fi.srt"
func Sibling(path, qualifier, ext string) string {
	if qualifier == "" {
		return ReplaceExt(path, ext)
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ReplaceExt(path, "."+qualifier+ext)
}

// Exists reports whether path exists and is a regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// IsNotExist unwraps err and reports whether it is fs.ErrNotExist.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
