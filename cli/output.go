// Package cli holds the terminal output helpers shared by cqlc commands.
package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/shipq/cqlc/query/compile"
)

// Labels are colored only when stdout is a terminal and NO_COLOR is unset.
var (
	errorLabel   = color.New(color.FgRed, color.Bold).Sprint("error:")
	warningLabel = color.New(color.FgYellow, color.Bold).Sprint("warning:")
	successLabel = color.New(color.FgGreen, color.Bold).Sprint("✓")
)

// Output writes command results to stdout and diagnostics to stderr.
type Output struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Errorf prints a formatted error to stderr and returns exit code 1.
func (o Output) Errorf(format string, args ...any) int {
	fmt.Fprintf(o.Stderr, errorLabel+" "+format+"\n", args...)
	return 1
}

// Err prints an error with context to stderr and returns exit code 1.
func (o Output) Err(msg string, err error) int {
	fmt.Fprintf(o.Stderr, "%s %s: %v\n", errorLabel, msg, err)
	return 1
}

// Infof prints a formatted informational message to stderr, keeping stdout
// for statements.
func (o Output) Infof(format string, args ...any) {
	fmt.Fprintf(o.Stderr, format+"\n", args...)
}

// Successf prints a formatted success message to stderr.
func (o Output) Successf(format string, args ...any) {
	fmt.Fprintf(o.Stderr, successLabel+" "+format+"\n", args...)
}

// Warnf prints a formatted warning message to stderr.
func (o Output) Warnf(format string, args ...any) {
	fmt.Fprintf(o.Stderr, warningLabel+" "+format+"\n", args...)
}

// Result prints a compiled statement followed by one comment line per bound
// value, in placeholder order.
//
//	SELECT "id" FROM "users" WHERE "id" = ?
//	-- ?1 = 'abc'
func (o Output) Result(r compile.Result) error {
	if _, err := fmt.Fprintln(o.Stdout, r.CQL); err != nil {
		return err
	}
	for i, v := range r.Values {
		lit, err := compile.EncodeLiteral(v)
		if err != nil {
			lit = fmt.Sprintf("%v", v)
		}
		if _, err := fmt.Fprintf(o.Stdout, "-- ?%d = %s\n", i+1, lit); err != nil {
			return err
		}
	}
	return nil
}

// Statement prints an inline statement.
func (o Output) Statement(cql string) error {
	_, err := fmt.Fprintln(o.Stdout, cql)
	return err
}
