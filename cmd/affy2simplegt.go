// ===========================================================================
//
// File Name:  affy2simplegt.go
//
// Author:  David Eccles
//
// ==========================================================================

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gringer/bioinfscripts/affytools"
	"github.com/klauspost/pgzip"
)

const affy2simplegtHelp = `
Affy2SimpleGT converts tall genotype tables (marker, individual, genotype)
into simplegt format: one header line naming individuals, then one line per
marker with every individual's genotype.

Usage:
  affy2simplegt [options] [file ...]

Files may be plain text or gzip, zstd, or lz4 compressed. A file name of '-'
or no file names reads stdin; s3://bucket/key reads from object storage.

Column Roles (0-based):
  -marker n        Marker column [0]
  -individual n    Individual column [1]
  -genotype n      Genotype column [2]

Numeric fields in these columns are kept as labels, so a sample named 1001
or a genotype written 00 appears as written. The Java Affy2SimpleGT skipped
numeric fields, which dropped such rows.

Output:
  -nocall str      String for missing genotypes [--]
  -output file     Write to file instead of stdout
  -gzip            Compress output

Settings:
  -config file     YAML (.yaml, .yml) or TOML (.toml) settings
  -metrics file    Save Prometheus metrics in text format
  -warnings n      Report only the first n missing genotypes

Diagnostics:
  -verbose         Report each new marker, individual, and genotype
  -quiet           No progress dots
  -timer           Print processing rate
  -stats           Print processor and memory information

Documentation:
  -help
  -version
`

// affyArgs holds command-line values that override the config file
type affyArgs struct {
	configFile string
	overrides  []func(*affytools.Config)
	timer      bool
	stats      bool
	help       bool
	version    bool
	files      []string
}

// parseArgs reads flags in any order, stopping at the first file name
func parseArgs(args []string) affyArgs {

	var aa affyArgs

	override := func(fn func(*affytools.Config)) {
		aa.overrides = append(aa.overrides, fn)
	}

	for len(args) > 0 {

		inSwitch := true

		switch args[0] {
		case "-config":
			aa.configFile = affytools.GetStringArg(args, "Config file name")
			args = args[1:]
		case "-marker":
			col := affytools.GetNumericArg(args, "Marker column", 0, 0, 1024)
			override(func(cfg *affytools.Config) { cfg.MarkerColumn = col })
			args = args[1:]
		case "-individual":
			col := affytools.GetNumericArg(args, "Individual column", 0, 0, 1024)
			override(func(cfg *affytools.Config) { cfg.IndividualColumn = col })
			args = args[1:]
		case "-genotype":
			col := affytools.GetNumericArg(args, "Genotype column", 0, 0, 1024)
			override(func(cfg *affytools.Config) { cfg.GenotypeColumn = col })
			args = args[1:]
		case "-nocall":
			str := affytools.GetStringArg(args, "No-call string")
			override(func(cfg *affytools.Config) { cfg.NoCall = str })
			args = args[1:]
		case "-output":
			str := affytools.GetStringArg(args, "Output file name")
			override(func(cfg *affytools.Config) { cfg.Output = str })
			args = args[1:]
		case "-metrics":
			str := affytools.GetStringArg(args, "Metrics file name")
			override(func(cfg *affytools.Config) { cfg.MetricsFile = str })
			args = args[1:]
		case "-warnings":
			num := affytools.GetNumericArg(args, "Warning limit", 0, 1, 1000000000)
			override(func(cfg *affytools.Config) { cfg.WarnLimit = num })
			args = args[1:]
		case "-gzip":
			override(func(cfg *affytools.Config) { cfg.CompressOutput = true })
		case "-verbose", "-debug":
			override(func(cfg *affytools.Config) { cfg.Verbose = true })
		case "-quiet":
			override(func(cfg *affytools.Config) { cfg.Progress = false })
		case "-timer":
			aa.timer = true
		case "-stats", "-stat":
			aa.stats = true
		case "-help", "help", "--help":
			aa.help = true
		case "-version":
			aa.version = true
		case "-":
			// stdin is a file name
			inSwitch = false
		default:
			if strings.HasPrefix(args[0], "-") {
				affytools.DisplayError("Unrecognized option '%s'", args[0])
				os.Exit(1)
			}
			inSwitch = false
		}

		if !inSwitch {
			break
		}

		// skip past argument
		args = args[1:]
	}

	aa.files = args

	return aa
}

// loadConfig applies command-line overrides on top of the config file or defaults
func loadConfig(aa affyArgs) (*affytools.Config, error) {

	cfg := affytools.DefaultConfig()

	if aa.configFile != "" {
		loaded, err := affytools.LoadConfig(aa.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	for _, fn := range aa.overrides {
		fn(cfg)
	}

	return cfg, cfg.Validate()
}

// createOutput opens the simplegt destination, compressing if requested
func createOutput(cfg *affytools.Config) (io.Writer, func() error, error) {

	var (
		wrtr    io.Writer = os.Stdout
		closers []func() error
	)

	if cfg.Output != "" && cfg.Output != "-" {
		outFile, err := os.Create(cfg.Output)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to create output file '%s': %w", cfg.Output, err)
		}
		wrtr = outFile
		closers = append(closers, outFile.Close)
	}

	if cfg.CompressOutput {
		zpr := pgzip.NewWriter(wrtr)
		wrtr = zpr
		closers = append([]func() error{zpr.Close}, closers...)
	}

	closeAll := func() error {
		var err error
		for _, fn := range closers {
			if cerr := fn(); cerr != nil && err == nil {
				err = cerr
			}
		}
		return err
	}

	return wrtr, closeAll, nil
}

func main() {

	// skip past executable name
	aa := parseArgs(os.Args[1:])

	if aa.help {
		fmt.Print(affy2simplegtHelp)
		return
	}
	if aa.version {
		fmt.Printf("%s\n", affytools.AffyToolsVersion)
		return
	}
	if aa.stats {
		affytools.PrintStats(os.Stderr)
		if len(aa.files) < 1 {
			return
		}
	}

	cfg, err := loadConfig(aa)
	if err != nil {
		affytools.DisplayError("%s", err.Error())
		os.Exit(1)
	}

	files := aa.files
	if len(files) < 1 {
		files = []string{"-"}
	}

	wrtr, closeOutput, err := createOutput(cfg)
	if err != nil {
		affytools.DisplayError("%s", err.Error())
		os.Exit(1)
	}

	diag := affytools.NewDiagnostics(os.Stderr, cfg.Verbose)

	pln, err := affytools.NewPipeline(cfg, wrtr, diag)
	if err != nil {
		affytools.DisplayError("%s", err.Error())
		os.Exit(1)
	}

	err = pln.Run(context.Background(), files)
	cerr := closeOutput()
	if err != nil {
		affytools.DisplayError("%s", err.Error())
		os.Exit(1)
	}
	if cerr != nil {
		affytools.DisplayError("Unable to close output - %s", cerr.Error())
		os.Exit(1)
	}

	if aa.timer {
		diag.PrintDuration("affy2simplegt", pln.Lines(), pln.Elapsed())
	}
}
