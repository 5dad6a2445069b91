package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wI2L/jsondiff"

	"github.com/gnolang/eql/augment"
	"github.com/gnolang/eql/lint"
	"github.com/gnolang/eql/parser"
)

var (
	augmentIndex string
	augmentType  string
	augmentFrom  int
	augmentSize  int
	augmentDiff  bool
)

var augmentCmd = &cobra.Command{
	Use:   "augment [query]",
	Short: "Add index, type and pagination defaults to a root query",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, data, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		config, err := lint.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		res := parser.Parse(string(data), config.Parser.AllowParameters)
		if err := res.Err(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		opts := augment.Options{Index: augmentIndex, Type: augmentType}
		if cmd.Flags().Changed("from") {
			opts.From = &augmentFrom
		}
		if cmd.Flags().Changed("size") {
			opts.Size = &augmentSize
		}

		root, err := augment.AugmentValue(res.Root, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		var out any = root
		if augmentDiff {
			patch, err := jsondiff.Compare(res.Value(), root)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			out = patch
		}
		d, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(d))
		return err
	},
}

func init() {
	augmentCmd.Flags().StringVar(&augmentIndex, "index", "", "Index the query is restricted to")
	augmentCmd.Flags().StringVar(&augmentType, "type", "", "Document type the query is restricted to")
	augmentCmd.Flags().IntVar(&augmentFrom, "from", 0, "Default number of hits to skip")
	augmentCmd.Flags().IntVar(&augmentSize, "size", 0, "Default number of hits to return")
	augmentCmd.Flags().BoolVar(&augmentDiff, "diff", false, "Print the changes as a JSON Patch instead of the query")
}
