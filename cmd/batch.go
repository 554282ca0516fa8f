package main

import (
	"comfort-exporter/batch"
	"io"
	"os"
	"runtime"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/syncromatics/go-kit/v2/log"
)

func newBatchCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "batch",
		Short: "evaluate every row of a CSV file of conditions",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			flags := c.Flags()
			input, _ := flags.GetString("input")
			output, _ := flags.GetString("output")
			workers, _ := flags.GetInt("workers")

			in, err := os.Open(input)
			if err != nil {
				return errors.Wrapf(err, "failed to open %s", input)
			}
			defer in.Close()

			rows, err := batch.Read(in)
			if err != nil {
				return errors.Wrapf(err, "failed to read %s", input)
			}

			results, err := batch.Evaluate(c.Context(), rows, workers)
			if err != nil {
				return err
			}

			err = writeResults(output, c.OutOrStdout(), results)
			if err != nil {
				return err
			}

			summary := batch.Summarize(results)
			log.Info("evaluated conditions",
				"input", input,
				"rows", summary.Rows,
				"failures", summary.Failures,
				"mean", summary.Mean,
				"min", summary.Min,
				"max", summary.Max)

			return nil
		},
	}

	flags := command.Flags()
	flags.String("input", "", "Path to a CSV file with columns ta, rh, v and optionally met, clo, tr, pa")
	flags.String("output", "-", "Path to write the results to, or - for standard output")
	flags.Int("workers", runtime.NumCPU(), "Maximum number of concurrent evaluations")
	command.MarkFlagRequired("input")

	return command
}

// writeResults writes to stdout when output is empty or -, otherwise to the named file
func writeResults(output string, stdout io.Writer, results []*batch.Result) error {
	if output == "" || output == "-" {
		return batch.Write(stdout, results)
	}

	file, err := os.Create(output)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", output)
	}

	err = batch.Write(file, results)
	if err != nil {
		file.Close()
		return errors.Wrapf(err, "failed to write %s", output)
	}

	err = file.Close()
	if err != nil {
		return errors.Wrapf(err, "failed to close %s", output)
	}
	return nil
}
