package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Czaporka/PyGnuplot/internal/db"
)

func TestHandleSave(t *testing.T) {
	h, _, _ := newTestHandler(t)
	path := filepath.Join(t.TempDir(), "data.dat")

	rec := do(t, h.HandleSave, http.MethodPost,
		`{"columns": [[1,2,3],[4,5,6]], "filename": `+strconv.Quote(path)+`}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1 4\n2 5\n3 6\n", string(data))
}

func TestHandleSave_MissingColumns(t *testing.T) {
	h, _, _ := newTestHandler(t)

	rec := do(t, h.HandleSave, http.MethodPost, `{"filename": "x.dat"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlePlot(t *testing.T) {
	h, l, database := newTestHandler(t)

	rec := do(t, h.HandlePlot, http.MethodPost, `{"columns": [[0,1],[0,1]]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	name := resp["filename"]
	t.Cleanup(func() { os.Remove(name) })

	assert.Equal(t, []string{"plot '" + name + "' w lp"}, l.Launched()[0].Commands())
	cmds, err := db.Commands(database, 0)
	require.NoError(t, err)
	assert.Len(t, cmds, 1)
}

func TestHandleExport_PDF(t *testing.T) {
	h, l, _ := newTestHandler(t)

	rec := do(t, h.HandleExport, http.MethodPost, `{"format": "pdf", "filename": "out.pdf", "width": 10}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{
		"set term pdf enhanced size 10cm, 9cm color solid fsize 12 fname 'Helvetica';",
		"set out 'out.pdf';",
		"replot;",
		"set term wxt; replot",
	}, l.Launched()[0].Commands())
}

func TestHandleExport_PostScriptDefaults(t *testing.T) {
	h, l, _ := newTestHandler(t)

	rec := do(t, h.HandleExport, http.MethodPost, `{"format": "ps", "term": "qt"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	cmds := l.Launched()[0].Commands()
	require.Len(t, cmds, 4)
	assert.Equal(t, "set out 'tmp.ps';", cmds[1])
	assert.Equal(t, "set term qt; replot", cmds[3])
}

func TestHandleExport_BadFormat(t *testing.T) {
	h, l, _ := newTestHandler(t)

	rec := do(t, h.HandleExport, http.MethodPost, `{"format": "svg"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, l.Launched()[0].Commands())
}
