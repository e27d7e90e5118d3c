package file

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FindRecentAfter walks dir and returns the files modified after startTime.
func FindRecentAfter(dir string, startTime time.Time) ([]string, error) {
	var recentFiles []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo,
		err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && info.ModTime().After(startTime) {
			recentFiles = append(recentFiles, path)
		}
		return nil
	})

	return recentFiles, err
}

// FindByExt lists the regular files directly inside dir whose extension
// matches ext case-insensitively, sorted by name. Subdirectories are not
// descended into.
func FindByExt(dir, ext string) ([]string, error) {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	ret := make([]string, 0)
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			ret = append(ret, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(ret)
	return ret, nil
}
