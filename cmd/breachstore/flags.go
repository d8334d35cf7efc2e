package main

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/breachstore/pkg/breachstore/output"
	"github.com/jamesainslie/breachstore/pkg/breachstore/types"
)

// Output flags.
var (
	outputFormat string
	templateStr  string
)

// render formats r with the --output formatter and writes it to the
// command's stdout.
func render(cmd *cobra.Command, r *output.Result) error {
	f, err := output.Get(outputFormat, output.Options{Theme: output.ThemeByName(cfg.Theme)})
	if err != nil {
		return fmt.Errorf("%w (available: %v)", err, output.Available())
	}
	if tf, ok := f.(*output.TemplateFormatter); ok && templateStr != "" {
		tf.SetTemplate(templateStr)
	}

	var buf bytes.Buffer
	if err := f.Format(&buf, r); err != nil {
		return fmt.Errorf("formatting %s output: %w", r.Command, err)
	}
	_, err = cmd.OutOrStdout().Write(buf.Bytes())
	return err
}

// parseKinds parses kind arguments, dropping duplicates. No arguments
// means every kind.
func parseKinds(args []string) ([]types.Kind, error) {
	if len(args) == 0 {
		return slices.Clone(types.Kinds), nil
	}
	kinds := make([]types.Kind, 0, len(args))
	for _, arg := range args {
		k, err := types.ParseKind(arg)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(kinds, k) {
			kinds = append(kinds, k)
		}
	}
	return kinds, nil
}

// isTerminal reports whether fd is an interactive terminal.
func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
