// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"

	"sysmod-cli/internal/config"
)

// newLogger writes text records to terminals and JSON records elsewhere.
func newLogger(w io.Writer, level config.LogLevel) *log.Logger {
	lvl, err := log.ParseLevel(string(level))
	if err != nil {
		lvl = log.WarnLevel
	}

	formatter := log.JSONFormatter
	if isTerminal(w) {
		formatter = log.TextFormatter
	}
	return log.NewWithOptions(w, log.Options{
		Level:     lvl,
		Formatter: formatter,
		Prefix:    "sysmod",
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// glamourStyle picks the Markdown style for guidance written to w.
func glamourStyle(w io.Writer) string {
	if isTerminal(w) {
		return "dark"
	}
	return "notty"
}
