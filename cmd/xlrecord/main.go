// Package main provides the CLI entry point for xlrecord.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/efwgrp/xlrecord"
	"github.com/efwgrp/xlrecord/internal/jobfile"
	"github.com/efwgrp/xlrecord/internal/logging"
	"github.com/spf13/cobra"
)

var (
	jobPath    string
	outputPath string
	pretty     bool
	logLevel   string
	logFormat  string
	atRow      int
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "xlrecord",
		Short: "Extract records from Excel sheets with declarative mappings",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(cmd.ErrOrStderr(), logLevel, logFormat)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&jobPath, "job", "", "Job file (YAML) with sheet, rows and query")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text, json")
	_ = rootCmd.MarkPersistentFlagRequired("job")

	extractCmd := &cobra.Command{
		Use:   "extract [input.xlsx]",
		Short: "Extract records and print them as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runExtract,
	}
	extractCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")

	describeCmd := &cobra.Command{
		Use:   "describe",
		Short: "Show where each field of a record is read from",
		Args:  cobra.NoArgs,
		RunE:  runDescribe,
	}
	describeCmd.Flags().IntVar(&atRow, "row", 0, "Row to resolve the mapping at (default: the job's start row)")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a job's mapping without opening a workbook",
		Args:  cobra.NoArgs,
		RunE:  runValidate,
	}

	rootCmd.AddCommand(extractCmd, describeCmd, validateCmd)
	return rootCmd
}

func runExtract(cmd *cobra.Command, args []string) error {
	job, err := jobfile.LoadFile(jobPath)
	if err != nil {
		return err
	}

	wb, err := xlrecord.Open(args[0])
	if err != nil {
		return err
	}
	defer wb.Close()

	logger := slog.Default().With("input", args[0], "sheet", job.Sheet)
	rec, err := job.Run(wb, xlrecord.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	logger.Info("extracted records", "count", rec.Len())

	var out io.Writer = cmd.OutOrStdout()
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("create output file %q: %w", outputPath, err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(rec)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	job, err := jobfile.LoadFile(jobPath)
	if err != nil {
		return err
	}
	row := atRow
	if row == 0 {
		row = job.Start
	}
	desc, err := xlrecord.Describe(job.Mapping, row)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), desc)
	return err
}

func runValidate(cmd *cobra.Command, args []string) error {
	job, err := jobfile.LoadFile(jobPath)
	if err != nil {
		return err
	}
	issues := xlrecord.ValidateMapping(job.Mapping)
	errCount := 0
	for _, is := range issues {
		fmt.Fprintln(cmd.OutOrStdout(), is.String())
		if is.Severity == xlrecord.SeverityError {
			errCount++
		}
	}
	if errCount > 0 {
		return fmt.Errorf("%d error(s) in mapping", errCount)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "OK")
	return nil
}
