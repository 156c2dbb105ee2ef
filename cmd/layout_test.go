// File: cmd/layout_test.go
package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/boxflow/internal/config"
	"github.com/xkilldash9x/boxflow/internal/report"
)

func TestLayoutCmd_RequiresArgs(t *testing.T) {
	out, err := executeCommand(t, "layout")
	require.Error(t, err)
	assert.Contains(t, out, "requires at least 1 arg(s), only received 0")
}

func TestLayoutCmd_JSONOutput(t *testing.T) {
	header := writeScene(t, "header.yaml", headerScene)
	row := writeScene(t, "row.yaml", rowScene)

	out, err := executeCommand(t, "layout", "--digest", header, row)
	require.NoError(t, err)

	var files []report.File
	require.NoError(t, json.Unmarshal([]byte(out), &files))
	require.Len(t, files, 2)

	assert.Equal(t, header, files[0].Path, "output keeps argument order")
	assert.Equal(t, "page", files[0].Layout.ID)
	assert.Equal(t, 35.0, files[0].Layout.Height)
	assert.Len(t, files[0].Digest, 64)

	assert.Equal(t, row, files[1].Path)
	require.Len(t, files[1].Layout.Children, 2)
	right := files[1].Layout.Children[1]
	assert.Equal(t, "right", right.ID)
	assert.Equal(t, 100.0, right.X)
	assert.Equal(t, 200.0, right.Width)
}

func TestLayoutCmd_TextAndViewportFlags(t *testing.T) {
	path := writeScene(t, "plain.yaml", "root:\n  id: root\n")

	out, err := executeCommand(t, "layout", "-f", "text", "--width", "640", path)
	require.NoError(t, err)
	assert.Contains(t, out, "root x=0 y=0 w=640 h=0")
}

func TestLayoutCmd_BadFlags(t *testing.T) {
	path := writeScene(t, "plain.yaml", "root: {}\n")

	_, err := executeCommand(t, "layout", "--format", "xml", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output flags")

	_, err = executeCommand(t, "layout", "-j", "0", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency must be a positive integer")
}

func TestRunLayout(t *testing.T) {
	logger := zaptest.NewLogger(t)
	lc := config.NewDefaultConfig().Layout()
	out := config.OutputConfig{Format: "text", Concurrency: 2}

	t.Run("many files", func(t *testing.T) {
		var paths []string
		for i := 0; i < 6; i++ {
			paths = append(paths, writeScene(t, "scene.yaml", rowScene))
		}
		var buf bytes.Buffer
		require.NoError(t, runLayout(context.Background(), logger, lc, out, paths, &buf))
		assert.Equal(t, 6, strings.Count(buf.String(), "# "))
	})

	t.Run("one bad file fails the run", func(t *testing.T) {
		good := writeScene(t, "good.yaml", rowScene)
		bad := writeScene(t, "bad.yaml", "root:\n  style:\n    display: grid\n")
		var buf bytes.Buffer
		err := runLayout(context.Background(), logger, lc, out, []string{good, bad}, &buf)
		require.Error(t, err)
		assert.Contains(t, err.Error(), bad)
		assert.Empty(t, buf.String())
	})

	t.Run("missing file", func(t *testing.T) {
		err := runLayout(context.Background(), logger, lc, out, []string{filepath.Join(t.TempDir(), "none.yaml")}, &bytes.Buffer{})
		assert.ErrorContains(t, err, "failed to read scene file")
	})

	t.Run("limits are enforced", func(t *testing.T) {
		limited := lc
		limited.MaxNodes = 2
		err := runLayout(context.Background(), logger, limited, out, []string{writeScene(t, "row.yaml", rowScene)}, &bytes.Buffer{})
		assert.ErrorContains(t, err, "layout failed")
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := runLayout(ctx, logger, lc, out, []string{writeScene(t, "row.yaml", rowScene)}, &bytes.Buffer{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestConfiguredViewport(t *testing.T) {
	vp := configuredViewport(config.LayoutConfig{ViewportWidth: 320})
	assert.True(t, vp.HasWidth)
	assert.False(t, vp.HasHeight)
	assert.Equal(t, 320.0, vp.Width)
}
