package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JosephCatrambone/morph-tool/morph"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "project.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParsePoints(t *testing.T) {
	points, err := parsePoints("1,2; 3.5, 4 ;")
	require.NoError(t, err)
	assert.Equal(t, []morph.Point{morph.NewPoint(1, 2), morph.NewPoint(3.5, 4)}, points)

	_, err = parsePoints("1,2,3")
	assert.True(t, errors.Is(err, morph.ErrShapeMismatch))
	_, err = parsePoints("a,b")
	assert.Error(t, err)
}

func TestRunWarpsQueryPoints(t *testing.T) {
	original := morph.Logf
	defer func() { morph.Logf = original }()
	morph.SetLogger(nil)

	path := writeProject(t, squareProject)
	out := &bytes.Buffer{}
	err := run(options{projectPath: path, frame: 0, points: "5,5", amount: -1}, out)
	require.NoError(t, err)
	assert.Equal(t, "5.000,5.000 -> 15.000,5.000\n", out.String())
}

func TestRunListsPairs(t *testing.T) {
	original := morph.Logf
	defer func() { morph.Logf = original }()
	morph.SetLogger(nil)

	path := writeProject(t, squareProject)
	out := &bytes.Buffer{}
	err := run(options{projectPath: path, frame: 0, amount: 0.5}, out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "shape [5 0 15 0 5 10 15 10]", lines[0])
	assert.Equal(t, "0: 0,0 -> 10,0", lines[1])
	assert.Equal(t, "3: 10,10 -> 20,10", lines[4])
}

func TestRunSmoothAndSave(t *testing.T) {
	original := morph.Logf
	defer func() { morph.Logf = original }()
	morph.SetLogger(nil)

	path := writeProject(t, squareProject)
	savePath := filepath.Join(t.TempDir(), "smoothed.yaml")
	err := run(options{projectPath: path, amount: -1, smooth: true, savePath: savePath}, &bytes.Buffer{})
	require.NoError(t, err)

	saved, err := LoadProject(savePath)
	require.NoError(t, err)
	assert.Len(t, saved.Channels, 4)
	assert.Len(t, saved.Channels[0], 2)
}

func TestRunErrors(t *testing.T) {
	original := morph.Logf
	defer func() { morph.Logf = original }()
	morph.SetLogger(nil)

	path := writeProject(t, squareProject)
	err := run(options{projectPath: path, amount: 2}, &bytes.Buffer{})
	assert.True(t, errors.Is(err, morph.ErrInvalidConfig))

	single := writeProject(t, "alpha: 0\nchannels:\n  - - {frame: 0, left: [0, 0], right: [1, 1]}\n")
	err = run(options{projectPath: single, amount: -1}, &bytes.Buffer{})
	assert.True(t, errors.Is(err, morph.ErrShapeMismatch), "expected ErrShapeMismatch, got %v", err)

	missingImage := writeProject(t, "alpha: 0\nleft_source: "+filepath.Join(t.TempDir(), "gone.png")+"\n")
	err = run(options{projectPath: missingImage, amount: -1}, &bytes.Buffer{})
	assert.True(t, errors.Is(err, morph.ErrNotFound), "expected ErrNotFound, got %v", err)
}
