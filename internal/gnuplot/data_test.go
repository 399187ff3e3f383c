package gnuplot

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteData_ZipsColumns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteData(&buf, [][]float64{{1, 2, 3}, {4, 5, 6}}))
	assert.Equal(t, "1 4\n2 5\n3 6\n", buf.String())
}

func TestWriteData_Formatting(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteData(&buf, [][]float64{{0.5, -2.25}, {1e-7, 100}, {3, 1e21}}))
	assert.Equal(t, "0.5 1e-07 3\n-2.25 100 1e+21\n", buf.String())
}

func TestWriteData_UnequalLengthsTruncate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteData(&buf, [][]float64{{1, 2, 3}, {4}}))
	assert.Equal(t, "1 4\n", buf.String())
}

func TestWriteData_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteData(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestSaveData_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.dat")
	require.NoError(t, SaveData(path, [][]float64{{1, 2, 3}, {4, 5, 6}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Equal(t, []string{"1 4", "2 5", "3 6"}, lines)
}

func TestSaveData_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.dat")
	require.NoError(t, os.WriteFile(path, []byte("old contents that are longer\n"), 0o644))
	require.NoError(t, SaveData(path, [][]float64{{7}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "7\n", string(data))
}

func TestSaveData_MissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope", "out.dat")
	err := SaveData(path, [][]float64{{1}})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPlot_WritesTempFileAndSendsPlot(t *testing.T) {
	h := NewMemoryHandle("")

	name, err := Plot(h, [][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(name) })

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "1 3\n2 4\n", string(data))
	assert.Equal(t, []string{"plot '" + name + "' w lp"}, h.Commands())
}

func TestPlot_SendFailure(t *testing.T) {
	h := NewMemoryHandle("")
	h.Close()

	name, err := Plot(h, [][]float64{{1}})
	t.Cleanup(func() { os.Remove(name) })
	assert.ErrorIs(t, err, ErrHandleClosed)
}
