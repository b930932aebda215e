package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sinspect/pkg/config"
	"sinspect/pkg/session"
)

type exportFlags struct {
	output      string
	delimiter   string
	noHeader    bool
	ref         int
	normGroup   string
	normRegion  string
	numerator   string
	denominator int
	workers     int
}

func newExportCmd(configPath *string) *cobra.Command {
	var f exportFlags

	cmd := &cobra.Command{
		Use:   "export <data-file>",
		Short: "Export every selected region to .xy files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			if err := f.override(cmd, cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runExport(cmd, cfg, args[0])
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.output, "output", "o", "", "output directory (overrides export.outputDir)")
	fl.StringVarP(&f.delimiter, "delimiter", "d", "", "column delimiter: tab, space or comma")
	fl.BoolVar(&f.noHeader, "no-header", false, "omit the two header lines")
	fl.IntVar(&f.ref, "ref", 0, "extended channel (1-9) for single normalisation, 0 for none")
	fl.StringVar(&f.normGroup, "norm-group", "", "group of the double normalisation reference region")
	fl.StringVar(&f.normRegion, "norm-region", "", "double normalisation reference region")
	fl.StringVar(&f.numerator, "numerator", "", "numerator on the reference region: Counts or 1-9")
	fl.IntVar(&f.denominator, "denominator", 0, "denominator extended channel (1-9)")
	fl.IntVarP(&f.workers, "workers", "w", 0, "regions written concurrently")
	return cmd
}

// override applies explicitly set flags on top of the configuration.
func (f *exportFlags) override(cmd *cobra.Command, cfg *config.Config) error {
	fl := cmd.Flags()
	if fl.Changed("output") {
		cfg.Export.OutputDir = f.output
	}
	if fl.Changed("delimiter") {
		cfg.Export.Delimiter = f.delimiter
	}
	if fl.Changed("no-header") {
		cfg.Export.IncludeHeader = !f.noHeader
	}
	if fl.Changed("ref") {
		cfg.Normalization.SingleReference = f.ref
	}
	if fl.Changed("norm-group") != fl.Changed("norm-region") {
		return fmt.Errorf("--norm-group and --norm-region must be given together")
	}
	if fl.Changed("norm-region") {
		cfg.Normalization.Reference.Group = f.normGroup
		cfg.Normalization.Reference.Region = f.normRegion
	}
	if fl.Changed("numerator") {
		cfg.Normalization.Numerator = f.numerator
	}
	if fl.Changed("denominator") {
		cfg.Normalization.Denominator = f.denominator
	}
	if fl.Changed("workers") {
		cfg.Export.Workers = f.workers
	}
	return nil
}

func runExport(cmd *cobra.Command, cfg *config.Config, dataPath string) error {
	logger := newLogger(cmd, cfg.Output.Verbose)

	sess := session.New(logger)
	if err := sess.Open(dataPath); err != nil {
		return err
	}
	if err := applyConfig(sess, cfg); err != nil {
		return err
	}

	opts, err := cfg.ExportOptions()
	if err != nil {
		return err
	}
	opts.Logger = logger

	start := time.Now()
	report, err := sess.Export(cfg.Export.OutputDir, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d regions (%s normalisation) to %s in %.2f seconds\n",
		len(report.Results), sess.Mode(), cfg.Export.OutputDir, time.Since(start).Seconds())
	if !report.OK() {
		return fmt.Errorf("export finished with errors: %s", report.Notice)
	}
	return nil
}
