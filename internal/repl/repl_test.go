package repl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Czaporka/PyGnuplot/internal/gnuplot"
)

func run(t *testing.T, input string) (*gnuplot.MemoryLauncher, string) {
	t.Helper()
	l := &gnuplot.MemoryLauncher{}
	reg, err := gnuplot.NewRegistry(l, "")
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, Run(reg, strings.NewReader(input), &out))
	return l, out.String()
}

func TestRun_SendsPlainLines(t *testing.T) {
	l, out := run(t, "set grid\n\nplot sin(x)\n")
	assert.Empty(t, out)
	assert.Equal(t, []string{"set grid", "plot sin(x)"}, l.Launched()[0].Commands())
}

func TestRun_FigureSwitching(t *testing.T) {
	l, out := run(t, ":figure\nplot x\n:figure 0\nplot y\n:figure 5\n")
	assert.Equal(t, "figure 1\nfigure 0\nfigure 5\n", out)

	handles := l.Launched()
	require.Len(t, handles, 3)
	assert.Equal(t, []string{"set term x11 0", "plot y"}, handles[0].Commands())
	assert.Equal(t, []string{"set term x11 1", "plot x"}, handles[1].Commands())
	assert.Equal(t, []string{"set term x11 5"}, handles[2].Commands())
}

func TestRun_Save(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.dat")
	_, out := run(t, ":save "+path+"\n1 4\n2 5\n3 6\n\nreplot\n")
	assert.Equal(t, "wrote "+path+"\n", out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1 4\n2 5\n3 6\n", string(data))
}

func TestRun_Plot(t *testing.T) {
	l, _ := run(t, ":plot\n0 1\n1 2\n")

	cmds := l.Launched()[0].Commands()
	require.Len(t, cmds, 1)
	assert.True(t, strings.HasPrefix(cmds[0], "plot '"))
	assert.True(t, strings.HasSuffix(cmds[0], "' w lp"))
	os.Remove(strings.TrimSuffix(strings.TrimPrefix(cmds[0], "plot '"), "' w lp"))
}

func TestRun_Export(t *testing.T) {
	l, _ := run(t, ":pdf out.pdf\n:ps\n")

	cmds := l.Launched()[0].Commands()
	require.Len(t, cmds, 8)
	assert.Equal(t, "set out 'out.pdf';", cmds[1])
	assert.Equal(t, "set out 'tmp.ps';", cmds[5])
	assert.Equal(t, "set term x11; replot", cmds[7])
}

func TestRun_ErrorsDoNotStop(t *testing.T) {
	l, out := run(t, ":bogus\n:figure x\n:save\n1 2\n3\n\nreplot\n")

	assert.Contains(t, out, "unknown meta command :bogus")
	assert.Contains(t, out, `invalid figure id "x"`)
	assert.Contains(t, out, "row 2 has 1 values, want 2")
	assert.Equal(t, []string{"replot"}, l.Launched()[0].Commands())
}

func TestRun_BadRowSkipsRestOfBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.dat")
	l, out := run(t, ":save "+path+"\n1 2\n3\n5 6\n7 8\n\nplot sin(x)\n")

	assert.Equal(t, "error: row 2 has 1 values, want 2\n", out)
	assert.Equal(t, []string{"plot sin(x)"}, l.Launched()[0].Commands())
	_, err := os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun_BadNumberSkipsRestOfBlock(t *testing.T) {
	l, out := run(t, ":plot\n1 x\n2 3\n\nreplot\n")

	assert.Contains(t, out, "row 1:")
	assert.Equal(t, []string{"replot"}, l.Launched()[0].Commands())
}
