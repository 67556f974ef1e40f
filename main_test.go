package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

type dirs struct{ lua, format, out string }

func newDirs(t *testing.T) dirs {
	t.Helper()
	root := t.TempDir()
	d := dirs{
		lua:    filepath.Join(root, "lua"),
		format: filepath.Join(root, "format"),
		out:    filepath.Join(root, "output"),
	}
	require.NoError(t, os.MkdirAll(d.lua, 0o755))
	require.NoError(t, os.MkdirAll(d.format, 0o755))
	return d
}

func (d dirs) args(extra ...string) []string {
	return append([]string{"-lua", d.lua, "-format", d.format, "-out", d.out, "-log-level", "error"}, extra...)
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRunConvert(t *testing.T) {
	d := newDirs(t)
	write(t, filepath.Join(d.format, "cfgItem.csv"), "id,name\n")
	write(t, filepath.Join(d.lua, "cfgItem.lua.txt"), `cfgItem = { [1] = { id = 1, name = "Sword" } }`)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), d.args("-file", "format/cfgItem.csv"), &stdout, &stderr, noEnv)
	require.NoError(t, err, stderr.String())

	b, err := os.ReadFile(filepath.Join(d.out, "cfgItem.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id,name\r\n1,Sword\r\n", string(b))
	assert.FileExists(t, filepath.Join(d.out, "cfgItem.txt"))
	assert.NoFileExists(t, filepath.Join(d.out, "cfgItem.xlsx"))
}

func TestRunConvertReportsFailures(t *testing.T) {
	d := newDirs(t)
	write(t, filepath.Join(d.format, "cfgA.csv"), "id\n")
	write(t, filepath.Join(d.lua, "cfgA.lua.txt"), `{ [1] = { id = 1 } }`)
	write(t, filepath.Join(d.format, "cfgB.csv"), "id\n")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), d.args("cfgB", "cfgA"), &stdout, &stderr, noEnv)
	require.Error(t, err)
	assert.ErrorContains(t, err, "cfgB")
	assert.FileExists(t, filepath.Join(d.out, "cfgA.csv"))
}

func TestRunHeaders(t *testing.T) {
	d := newDirs(t)
	write(t, filepath.Join(d.lua, "cfgItem.lua.txt"), `{ [1] = { id = 1, name = "a" }, [2] = { id = 2, icon = "x" } }`)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), append([]string{"headers"}, d.args("cfgItem")...), &stdout, &stderr, noEnv))
	assert.Equal(t, "id,name,icon\n", stdout.String())

	stdout.Reset()
	require.NoError(t, run(context.Background(), append([]string{"headers"}, d.args("-write", "cfgItem")...), &stdout, &stderr, noEnv))
	path := filepath.Join(d.format, "cfgItem.csv")
	assert.Equal(t, path+"\n", stdout.String())
	assert.FileExists(t, path)
}

func TestRunHeadersNeedsDataset(t *testing.T) {
	d := newDirs(t)
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), append([]string{"headers"}, d.args()...), &stdout, &stderr, noEnv)
	var ee *ExitError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, 2, ee.Code)
}

func TestRunList(t *testing.T) {
	d := newDirs(t)
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), append([]string{"list"}, d.args("cfgskill", "cfgItem")...), &stdout, &stderr, noEnv))
	assert.Equal(t,
		"cfgskill\tskill\ttolerant\t"+filepath.Join(d.lua, "cfgskill.lua.txt")+"\n"+
			"cfgItem\tflat\tgeneric\t"+filepath.Join(d.lua, "cfgItem.lua.txt")+"\n",
		stdout.String())
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown flag", args: []string{"-nope"}},
		{name: "bad log format", args: []string{"-log-format", "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tt.args, &stdout, &stderr, noEnv)
			var ee *ExitError
			require.True(t, errors.As(err, &ee), "got %v", err)
			assert.Equal(t, 2, ee.Code)
		})
	}
}

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-h"}, &stdout, &stderr, noEnv))
	assert.Contains(t, stderr.String(), "luacsv [convert|headers|list]")
}

func TestRunPublishNeedsBucket(t *testing.T) {
	d := newDirs(t)
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), d.args("-publish", "cfgItem"), &stdout, &stderr, noEnv)
	var ee *ExitError
	require.True(t, errors.As(err, &ee))
	assert.Contains(t, ee.Message, "publish.bucket")
}

func TestLogLevel(t *testing.T) {
	env := func(vals map[string]string) func(string) string {
		return func(k string) string { return vals[k] }
	}
	var stderr bytes.Buffer

	assert.Equal(t, slog.LevelInfo, logLevel("", noEnv, &stderr))
	assert.Equal(t, slog.LevelDebug, logLevel("debug", noEnv, &stderr))
	assert.Equal(t, slog.LevelWarn, logLevel("", env(map[string]string{"LOG_LEVEL": "warning"}), &stderr))
	assert.Equal(t, slog.LevelError, logLevel("", env(map[string]string{"LUACSV_LOG_LEVEL": "ERROR", "LOG_LEVEL": "debug"}), &stderr))
	assert.Empty(t, stderr.String())

	assert.Equal(t, slog.LevelInfo, parseLogLevel("loud", &stderr))
	assert.Contains(t, stderr.String(), "Unknown log level 'loud'")
}

func TestListFlag(t *testing.T) {
	var l listFlag
	require.NoError(t, l.Set("a, b,,c"))
	require.NoError(t, l.Set("d"))
	assert.Equal(t, listFlag{"a", "b", "c", "d"}, l)
	assert.Equal(t, "a,b,c,d", l.String())
}

func TestResolveDatasets(t *testing.T) {
	got := resolveDatasets([]string{"cfgA", "lua/cfgB.lua.txt", "format/cfgC.xlsx", " cfgD.csv ", ""})
	assert.Equal(t, []string{"cfgA", "cfgB", "cfgC", "cfgD"}, got)
}
