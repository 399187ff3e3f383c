package gnuplot

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
)

// DefaultDataFile is where SaveData writes when no name is given.
const DefaultDataFile = "tmp.dat"

// WriteData writes columns side by side: row i holds the i-th value of each
// column, space separated. Columns of unequal length are cut to the
// shortest one.
func WriteData(w io.Writer, columns [][]float64) error {
	bw := bufio.NewWriter(w)
	rows := shortest(columns)
	var line []byte
	for i := 0; i < rows; i++ {
		line = line[:0]
		for j, col := range columns {
			if j > 0 {
				line = append(line, ' ')
			}
			line = strconv.AppendFloat(line, col[i], 'g', -1, 64)
		}
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func shortest(columns [][]float64) int {
	if len(columns) == 0 {
		return 0
	}
	n := len(columns[0])
	for _, col := range columns[1:] {
		n = min(n, len(col))
	}
	return n
}

// SaveData creates or truncates filename and writes columns into it.
func SaveData(filename string, columns [][]float64) error {
	if filename == "" {
		filename = DefaultDataFile
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create data file: %w", err)
	}
	if err := WriteData(f, columns); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return f.Close()
}

// Plot writes columns to a temporary file and asks gnuplot to draw it with
// lines and points. The file is left in place since gnuplot reads it after
// Plot returns. The temp file's path is returned.
func Plot(s Sender, columns [][]float64) (string, error) {
	f, err := os.CreateTemp("", "gnuplot-*.dat")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	name := f.Name()
	if err := WriteData(f, columns); err != nil {
		f.Close()
		return name, fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return name, err
	}
	return name, s.Send(fmt.Sprintf("plot '%s' w lp", name))
}
