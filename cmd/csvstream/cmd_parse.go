package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nnnkkk7/go-csvstream"
	"github.com/spf13/cobra"
)

func newParseCmd() *cobra.Command {
	var flags parseFlags
	var outputFormat string
	var outSeparator string

	cmd := &cobra.Command{
		Use:   "parse [file...]",
		Short: "Parse CSV files and print their rows",
		Long: `Parse CSV files and print one line per row.

With no file, or with "-", reads standard input. Files ending in .gz, .bz2,
.xz, .zst or .lz4 are decompressed first.

Rows that fail to parse are logged and skipped; the command exits with an
error if any row failed.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			sep, err := byteFlag("out-separator", outSeparator)
			if err != nil {
				return err
			}
			out, err := newRowWriter(outputFormat, os.Stdout, sep)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				args = []string{stdinName}
			}
			failed := 0
			for _, path := range args {
				n, err := parseFile(path, opts, flags.chunkSize, out)
				failed += n
				if err != nil {
					_ = out.Flush()
					return err
				}
			}
			if err := out.Flush(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d rows failed to parse", failed)
			}
			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "output format: json, values, or csv")
	cmd.Flags().StringVar(&outSeparator, "out-separator", ",", "separator for csv output")

	return cmd
}

// parseFile writes every row of path to out. It returns the number of row
// and encoding errors, which are logged and skipped, and any error that
// stopped the file.
func parseFile(path string, opts csvstream.Options, chunkSize int, out rowWriter) (int, error) {
	in, err := openInput(path)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	r, err := csvstream.NewReader(in, opts)
	if err != nil {
		return 0, err
	}
	r.BufferSize = chunkSize

	failed, rows := 0, 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if !isRecoverable(err) {
				return failed, fmt.Errorf("%s: %w", in.name, err)
			}
			failed++
			log.Errorf("%s: %v", in.name, err)
			continue
		}
		if err := out.WriteRow(row); err != nil {
			return failed, err
		}
		rows++
	}
	log.Infof("%s: %d rows, %d errors, charset %s", in.name, rows, failed, r.Charset())
	return failed, nil
}

// isRecoverable reports whether reading can continue after err.
func isRecoverable(err error) bool {
	var parseErr *csvstream.ParseError
	var encErr *csvstream.EncodingError
	return errors.As(err, &parseErr) || errors.As(err, &encErr)
}
