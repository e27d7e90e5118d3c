package batch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MimeLyc/yle-transcripts/internal/fetch"
)

// ResolveURLs interprets arg as a manifest when it names an existing file,
// otherwise as a single URL. Manifest lines are trimmed and blank lines
// dropped.
func ResolveURLs(arg string) ([]string, error) {
	info, err := os.Stat(arg)
	if err != nil {
		return []string{fetch.NormalizeURL(arg)}, nil
	}
	if info.IsDir() {
		return nil, fmt.Errorf("manifest %s is a directory", arg)
	}
	return readManifest(arg)
}

func readManifest(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	ret := make([]string, 0)
	br := bufio.NewReader(f)
	for {
		line, err := br.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			ret = append(ret, fetch.NormalizeURL(line))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read manifest %s: %w", path, err)
		}
	}
	return ret, nil
}
