package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const before = `ID,NAME,x,y
1,north,1,2
2,east,3,4
3,south,5,6
`

const after = `ID,NAME,x,y
1,north,1,2
2,east,3,4.5
4,west,7,8
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestRunEqualFiles(t *testing.T) {
	dir := t.TempDir()
	source := writeFile(t, dir, "before.csv", before)
	other := writeFile(t, dir, "after.csv", before)

	var stdout bytes.Buffer
	code, err := run(context.Background(), []string{"-source", source, "-other", other, "-key", "ID", "-format", "json"}, &stdout, &bytes.Buffer{})
	require.NoError(t, err)

	assert.Equal(t, exitEqual, code)
	assert.Empty(t, stdout.String())
}

func TestRunReportsDifferences(t *testing.T) {
	dir := t.TempDir()
	source := writeFile(t, dir, "before.csv", before)
	other := writeFile(t, dir, "after.csv", after)
	graph := filepath.Join(dir, "pipeline.dot")
	cfgPath := writeFile(t, dir, "geodiff.yml", `
compare:
  key_attribute: ID
  source_label: before
  other_label: after
output:
  format: json
drawer:
  output: `+graph+`
`)

	var stdout bytes.Buffer
	code, err := run(context.Background(), []string{"-config", cfgPath, "-source", source, "-other", other}, &stdout, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, exitDifferences, code)

	var kinds []string
	for _, line := range strings.Split(strings.TrimSpace(stdout.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		kinds = append(kinds, entry["side"].(string)+":"+entry["kind"].(string))
	}

	assert.Equal(t, []string{
		"before:geometry_mismatch",
		"after:geometry_mismatch",
		"before:unmatched",
		"after:unmatched",
	}, kinds)

	dot, err := os.ReadFile(graph)
	require.NoError(t, err)
	assert.Contains(t, string(dot), `"before" -> "compare"`)
	assert.Contains(t, string(dot), `"after" -> "compare"`)
	assert.Contains(t, string(dot), "matched: 2, differences: 4")
}

func TestRunJSONOutputFile(t *testing.T) {
	dir := t.TempDir()
	source := writeFile(t, dir, "before.csv", before)
	other := writeFile(t, dir, "after.csv", after)
	output := filepath.Join(dir, "diff.jsonl")
	t.Setenv("GEODIFF_OUTPUT_PATH", output)
	t.Setenv("GEODIFF_METRICS_ENABLED", "true")

	code, err := run(context.Background(), []string{"-source", source, "-other", other, "-key", "ID", "-format", "json"}, &bytes.Buffer{}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, exitDifferences, code)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 4)
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	source := writeFile(t, dir, "before.csv", before)
	unsorted := writeFile(t, dir, "unsorted.csv", "ID,x,y\n2,0,0\n1,0,0\n")

	tcs := map[string]struct {
		args []string
	}{
		"missing other": {
			args: []string{"-source", source, "-key", "ID"},
		},
		"missing key": {
			args: []string{"-source", source, "-other", source},
		},
		"unknown flag": {
			args: []string{"-nope"},
		},
		"missing file": {
			args: []string{"-source", source, "-other", filepath.Join(dir, "missing.csv"), "-key", "ID"},
		},
		"unsorted file": {
			args: []string{"-source", source, "-other", unsorted, "-key", "ID", "-format", "json"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			code, err := run(context.Background(), tc.args, &bytes.Buffer{}, &bytes.Buffer{})
			require.Error(t, err)
			assert.Equal(t, exitError, code)
		})
	}
}
