// ===========================================================================
//
// File Name:  utils.go
//
// Author:  David Eccles
//
// ==========================================================================

package affytools

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/gedex/inflector"
	"github.com/klauspost/cpuid"
	"github.com/pbnjay/memory"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// AffyToolsVersion is the current affytools release number
const AffyToolsVersion = "0.3.0"

var (
	errorColor   = color.New(color.FgRed, color.Bold, color.ReverseVideo)
	warningColor = color.New(color.FgRed, color.Bold)
	debugColor   = color.New(color.FgBlue)
)

// Diagnostics is the side channel for errors, warnings, progress dots, and run
// summaries. Numbers in formatted messages get thousands separators.
type Diagnostics struct {
	wrtr    io.Writer
	verbose bool
	prntr   *message.Printer
}

// NewDiagnostics writes messages to wrtr, with Debug output only if verbose is set
func NewDiagnostics(wrtr io.Writer, verbose bool) *Diagnostics {

	if wrtr == nil {
		wrtr = io.Discard
	}

	return &Diagnostics{
		wrtr:    wrtr,
		verbose: verbose,
		prntr:   message.NewPrinter(language.English),
	}
}

// Error reports a condition that loses data or aborts the run
func (d *Diagnostics) Error(format string, params ...any) {

	str := d.prntr.Sprintf(format, params...)
	errorColor.Fprint(d.wrtr, " ERROR: ")
	fmt.Fprintf(d.wrtr, " %s\n", str)
}

// Warning reports a recoverable condition
func (d *Diagnostics) Warning(format string, params ...any) {

	str := d.prntr.Sprintf(format, params...)
	warningColor.Fprint(d.wrtr, " WARNING: ")
	fmt.Fprintf(d.wrtr, " %s\n", str)
}

// Notice prints an informational line
func (d *Diagnostics) Notice(format string, params ...any) {

	fmt.Fprintln(d.wrtr, d.prntr.Sprintf(format, params...))
}

// Debug prints discovery notices, only when verbose
func (d *Diagnostics) Debug(format string, params ...any) {

	if !d.verbose {
		return
	}

	debugColor.Fprintln(d.wrtr, d.prntr.Sprintf(format, params...))
}

// Verbose reports whether Debug messages are printed
func (d *Diagnostics) Verbose() bool {

	return d.verbose
}

// Progress prints one dot per interval, and a final newline if any dots were written
type Progress struct {
	diag  *Diagnostics
	every int
	count int
	dots  int
}

// NewProgress returns a dot printer, silent when every is not positive
func (d *Diagnostics) NewProgress(every int) *Progress {

	return &Progress{diag: d, every: every}
}

// Tick counts one unit of work
func (p *Progress) Tick() {

	p.count++
	if p.every < 1 || p.count%p.every != 0 {
		return
	}

	fmt.Fprint(p.diag.wrtr, ".")
	p.dots++
}

// Done terminates the line of dots
func (p *Progress) Done() {

	if p.dots > 0 {
		fmt.Fprintln(p.diag.wrtr)
		p.dots = 0
	}
}

// Plural returns noun, pluralized unless count is exactly one
func Plural(count int, noun string) string {

	if count == 1 {
		return noun
	}

	return inflector.Pluralize(noun)
}

// CountOf formats a count followed by its noun, e.g. "1,000 lines"
func (d *Diagnostics) CountOf(count int, noun string) string {

	return d.prntr.Sprintf("%d %s", count, Plural(count, noun))
}

// PrintDuration reports elapsed time and processing rate for a finished run
func (d *Diagnostics) PrintDuration(name string, lines int, elapsed time.Duration) {

	secs := elapsed.Seconds()
	if secs <= 0 {
		d.Notice("%s processed %s in %.3f seconds", name, d.CountOf(lines, "line"), secs)
		return
	}

	rate := int(float64(lines) / secs)
	d.Notice("%s processed %s in %.3f seconds (%d lines/second)", name, d.CountOf(lines, "line"), secs, rate)
}

// PrintStats prints processor and memory information
func PrintStats(wrtr io.Writer) {

	prntr := message.NewPrinter(language.English)

	ncpu := runtime.NumCPU()
	nprocs := runtime.GOMAXPROCS(0)
	totmem := memory.TotalMemory()

	prntr.Fprintf(wrtr, "CPU Brand %s\n", cpuid.CPU.BrandName)
	prntr.Fprintf(wrtr, "Physical Cores %d\n", cpuid.CPU.PhysicalCores)
	prntr.Fprintf(wrtr, "Threads Per Core %d\n", cpuid.CPU.ThreadsPerCore)
	prntr.Fprintf(wrtr, "Logical Cores %d\n", cpuid.CPU.LogicalCores)
	prntr.Fprintf(wrtr, "NumCPU %d\n", ncpu)
	prntr.Fprintf(wrtr, "GOMAXPROCS %d\n", nprocs)
	prntr.Fprintf(wrtr, "Total Memory %d MB\n", totmem/(1024*1024))
	prntr.Fprintf(wrtr, "Go Version %s\n", runtime.Version())
}

// stderrDiagnostics backs DisplayError for commands
var stderrDiagnostics = NewDiagnostics(os.Stderr, false)

// DisplayError prints an error message to stderr
func DisplayError(format string, params ...any) {

	stderrDiagnostics.Error(format, params...)
}

// GetNumericArg returns an integer argument, reporting any error and exiting.
// Values below one return zer, others are clamped to the range min to max.
func GetNumericArg(args []string, name string, zer, min, max int) int {

	if len(args) < 2 {
		DisplayError("%s is missing", name)
		os.Exit(1)
	}

	value, err := strconv.Atoi(args[1])
	if err != nil {
		DisplayError("%s (%s) is not an integer", name, args[1])
		os.Exit(1)
	}

	// special case for argument value of 0
	if value < 1 {
		return zer
	}

	// limit value to between specified minimum and maximum
	if value < min {
		return min
	}
	if value > max {
		return max
	}

	return value
}

// GetStringArg returns the string argument after a flag, reporting any error and exiting
func GetStringArg(args []string, name string) string {

	if len(args) < 2 {
		DisplayError("%s is missing", name)
		os.Exit(1)
	}

	return args[1]
}
