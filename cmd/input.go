package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gnolang/eql/clause"
	"github.com/gnolang/eql/lint"
)

const stdinName = "<stdin>"

// readInput reads the file named by args, or standard input when there is
// none or it is "-".
func readInput(cmd *cobra.Command, args []string) (string, []byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return stdinName, nil, fmt.Errorf("error reading standard input: %w", err)
		}
		return stdinName, data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return args[0], nil, fmt.Errorf("error reading file: %w", err)
	}
	return args[0], data, nil
}

// loadGrammar returns the clause registry and root selected by the configuration.
func loadGrammar(config lint.Config) (*clause.Registry, string, error) {
	reg := clause.DefaultRegistry()
	if config.Clauses.Registry != "" {
		var err error
		if reg, err = clause.LoadRegistryFile(config.Clauses.Registry); err != nil {
			return nil, "", err
		}
	}
	root := config.Clauses.Root
	if root == "" {
		root = reg.Root()
	}
	return reg, root, nil
}
