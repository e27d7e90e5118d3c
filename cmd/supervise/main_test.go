package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeChild(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("sh scripts are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "yletrans")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestSupervise_StreamsAndReturnsExitCode(t *testing.T) {
	child := writeChild(t, "echo \"RUN: yle-dl $1\"\necho oops >&2\nexit 4\n")
	var out bytes.Buffer

	code, err := supervise(context.Background(), &out, "utf-8", child, "https://areena.yle.fi/1-1")
	require.NoError(t, err)
	assert.Equal(t, 4, code)
	assert.Equal(t,
		"RUN: yle-dl https://areena.yle.fi/1-1\noops\n[yletrans finished with exit code 4]\n",
		out.String())
}

func TestRootCommand_UsesYletransBin(t *testing.T) {
	child := writeChild(t, "echo hello\n")
	t.Setenv("YLETRANS_BIN", child)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "none.toml"))
	t.Chdir(t.TempDir())

	var out bytes.Buffer
	code := -1
	cmd := newRootCommand(&out, &code)
	cmd.SetArgs([]string{"urls.txt"})
	require.NoError(t, cmd.Execute())

	assert.Equal(t, 0, code)
	assert.Contains(t, out.String(), "hello\n")
}

func TestRootCommand_MissingArgument(t *testing.T) {
	code := 0
	cmd := newRootCommand(&bytes.Buffer{}, &code)
	cmd.SetArgs(nil)

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Usage: supervise <url|manifest>")
}

func TestChildBinary_FromEnv(t *testing.T) {
	t.Setenv("YLETRANS_BIN", "/opt/yletrans")
	bin, err := childBinary()
	require.NoError(t, err)
	assert.Equal(t, "/opt/yletrans", bin)
}
