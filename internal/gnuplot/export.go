package gnuplot

import "fmt"

// ExportOptions controls a PostScript or PDF export. Sizes are in
// centimetres, FontSize in points. Term is the terminal restored afterwards.
type ExportOptions struct {
	Filename string
	Width    float64
	Height   float64
	FontSize float64
	Term     string
}

const (
	DefaultPostScriptFile = "tmp.ps"
	DefaultPDFFile        = "tmp.pdf"
)

func defaultExport(filename string) ExportOptions {
	return ExportOptions{
		Filename: filename,
		Width:    14,
		Height:   9,
		FontSize: 12,
		Term:     DefaultTerm,
	}
}

// DefaultPostScriptOptions returns the 14x9cm, 12pt defaults writing tmp.ps.
func DefaultPostScriptOptions() ExportOptions { return defaultExport(DefaultPostScriptFile) }

// DefaultPDFOptions returns the 14x9cm, 12pt defaults writing tmp.pdf.
func DefaultPDFOptions() ExportOptions { return defaultExport(DefaultPDFFile) }

// withDefaults fills zero fields from d.
func (o ExportOptions) withDefaults(d ExportOptions) ExportOptions {
	if o.Filename == "" {
		o.Filename = d.Filename
	}
	if o.Width == 0 {
		o.Width = d.Width
	}
	if o.Height == 0 {
		o.Height = d.Height
	}
	if o.FontSize == 0 {
		o.FontSize = d.FontSize
	}
	if o.Term == "" {
		o.Term = d.Term
	}
	return o
}

// PostScript replots the current figure into a color PostScript file and
// switches back to opts.Term.
func PostScript(s Sender, opts ExportOptions) error {
	opts = opts.withDefaults(DefaultPostScriptOptions())
	return export(s, opts, fmt.Sprintf(
		"set term postscript size %scm, %scm color solid %s font 'Calibri';",
		num(opts.Width), num(opts.Height), num(opts.FontSize)))
}

// PDF replots the current figure into a PDF file and switches back to
// opts.Term.
func PDF(s Sender, opts ExportOptions) error {
	opts = opts.withDefaults(DefaultPDFOptions())
	return export(s, opts, fmt.Sprintf(
		"set term pdf enhanced size %scm, %scm color solid fsize %s fname 'Helvetica';",
		num(opts.Width), num(opts.Height), num(opts.FontSize)))
}

func export(s Sender, opts ExportOptions, setTerm string) error {
	cmds := []string{
		setTerm,
		fmt.Sprintf("set out '%s';", opts.Filename),
		"replot;",
		fmt.Sprintf("set term %s; replot", opts.Term),
	}
	for _, c := range cmds {
		if err := s.Send(c); err != nil {
			return err
		}
	}
	return nil
}

func num(v float64) string {
	return fmt.Sprintf("%g", v)
}
