package main

import (
	"fmt"
	"io"
	"os"

	"github.com/nnnkkk7/go-csvstream"
	"github.com/spf13/cobra"
)

func newHeadersCmd() *cobra.Command {
	var flags parseFlags

	cmd := &cobra.Command{
		Use:          "headers [file...]",
		Short:        "Print the resolved column labels of CSV files",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{stdinName}
			}

			w := csvstream.NewWriter(os.Stdout)
			for _, path := range args {
				headers, err := readHeaders(path, opts, flags.chunkSize)
				if err != nil {
					return err
				}
				if err := w.Write(headers); err != nil {
					return err
				}
			}
			return w.Flush()
		},
	}

	flags.register(cmd.Flags())
	return cmd
}

// readHeaders reads path until its headers are resolved.
func readHeaders(path string, opts csvstream.Options, chunkSize int) ([]string, error) {
	in, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()

	r, err := csvstream.NewReader(in, opts)
	if err != nil {
		return nil, err
	}
	r.BufferSize = chunkSize

	for r.Headers() == nil {
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil && !isRecoverable(err) {
			return nil, fmt.Errorf("%s: %w", in.name, err)
		}
	}
	headers := r.Headers()
	if headers == nil {
		return nil, fmt.Errorf("%s: %w", in.name, csvstream.ErrNoHeaders)
	}
	return headers, nil
}
