package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gnolang/eql/clause"
	"github.com/gnolang/eql/lint"
	"github.com/gnolang/eql/parser"
	"github.com/gnolang/eql/printer"
)

var highlightCmd = &cobra.Command{
	Use:   "highlight [query]",
	Short: "Print a query with syntax colors",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := lint.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		reg, root, err := loadGrammar(config)
		if err != nil {
			return err
		}

		_, data, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		source := string(data)
		res := parser.Parse(source, true)
		clause.Mark(res.Root, reg, root)

		out := printer.Highlight(source, printer.Flatten(res.Root, true), printer.DefaultPalette().Paint)
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}
