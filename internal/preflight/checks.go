package preflight

import (
	"fmt"
	"os/exec"

	"github.com/Czaporka/PyGnuplot/internal/models"
)

// CheckGnuplot reports whether the gnuplot executable at path (or on PATH)
// can be found, and prints the result.
func CheckGnuplot(path string) models.GnuplotStatus {
	status := checkExecutable(path)
	if !status.Installed {
		fmt.Printf("⚠ %s is not installed. Install gnuplot to open figures.\n", path)
	} else {
		fmt.Printf("✓ gnuplot found (%s)\n", status.Path)
	}
	return status
}

func checkExecutable(name string) models.GnuplotStatus {
	path, err := exec.LookPath(name)
	if err != nil {
		return models.GnuplotStatus{Installed: false}
	}
	return models.GnuplotStatus{Installed: true, Path: path}
}
