package repl

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Czaporka/PyGnuplot/internal/gnuplot"
)

// Run reads lines from in and drives reg until EOF.
//
// Lines starting with ':' are meta commands:
//
//	:figure [n]    select or create figure n, or a new one
//	:save FILE     read rows until a blank line and write them to FILE
//	:plot          read rows until a blank line and plot them
//	:ps [FILE]     export the current figure to PostScript
//	:pdf [FILE]    export the current figure to PDF
//
// Everything else is sent verbatim to the current figure. Errors are
// reported on out and do not stop the loop.
func Run(reg *gnuplot.Registry, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		var err error
		if strings.HasPrefix(line, ":") {
			err = meta(reg, strings.Fields(line[1:]), sc, out)
		} else {
			err = reg.Send(line)
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
	return sc.Err()
}

func meta(reg *gnuplot.Registry, args []string, sc *bufio.Scanner, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("empty meta command")
	}
	arg := func(def string) string {
		if len(args) > 1 {
			return args[1]
		}
		return def
	}

	switch args[0] {
	case "figure":
		var id *int
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid figure id %q", args[1])
			}
			id = &n
		}
		n, err := reg.Figure(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "figure %d\n", n)
		return nil
	case "save":
		columns, err := readRows(sc)
		if err != nil {
			return err
		}
		name := arg(gnuplot.DefaultDataFile)
		if err := gnuplot.SaveData(name, columns); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", name)
		return nil
	case "plot":
		columns, err := readRows(sc)
		if err != nil {
			return err
		}
		_, err = gnuplot.Plot(reg, columns)
		return err
	case "ps":
		return gnuplot.PostScript(reg, gnuplot.ExportOptions{Filename: arg(""), Term: reg.Term()})
	case "pdf":
		return gnuplot.PDF(reg, gnuplot.ExportOptions{Filename: arg(""), Term: reg.Term()})
	default:
		return fmt.Errorf("unknown meta command :%s", args[0])
	}
}

// readRows reads whitespace-separated rows up to a blank line or EOF and
// returns them as columns. A bad row still consumes the rest of the block,
// so none of its lines are mistaken for commands.
func readRows(sc *bufio.Scanner) ([][]float64, error) {
	var columns [][]float64
	var rowErr error
	for row := 0; sc.Scan(); row++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			break
		}
		if rowErr != nil {
			continue
		}
		rowErr = parseRow(&columns, row, fields)
	}
	if rowErr != nil {
		return nil, rowErr
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("no rows")
	}
	return columns, nil
}

func parseRow(columns *[][]float64, row int, fields []string) error {
	if row == 0 {
		*columns = make([][]float64, len(fields))
	} else if len(fields) != len(*columns) {
		return fmt.Errorf("row %d has %d values, want %d", row+1, len(fields), len(*columns))
	}
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return fmt.Errorf("row %d: %w", row+1, err)
		}
		values[i] = v
	}
	for i, v := range values {
		(*columns)[i] = append((*columns)[i], v)
	}
	return nil
}
