package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gnolang/eql/clause"
	tt "github.com/gnolang/eql/internal/types"
	"github.com/gnolang/eql/lint"
	"github.com/gnolang/eql/parser"
)

// initCmd: eql init
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = lint.DefaultConfigPath
		}
		if err := initConfigurationFile(path); err != nil {
			return fmt.Errorf("error initializing config file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created/updated: %s\n", path)
		return nil
	},
}

// initConfigurationFile writes the default configuration with every issue
// code at its default severity.
func initConfigurationFile(configurationPath string) error {
	config := lint.DefaultConfig()
	for _, code := range []string{
		parser.CodeUnknownToken,
		parser.CodeStringFormat,
		parser.CodeNumberFormat,
		parser.CodeInvalidParameter,
		parser.CodePropertyName,
		parser.CodeDuplicateProperty,
		parser.CodeMissingValue,
		parser.CodeMissingBrace,
		parser.CodeMissingBracket,
		parser.CodeUnexpectedToken,
		clause.CodeClauseType,
		clause.CodeRequiredProperty,
	} {
		config.Rules[code] = tt.ConfigRule{Severity: tt.SeverityError}
	}
	config.Rules[parser.CodePossibleLiteral] = tt.ConfigRule{Severity: tt.SeverityWarning}
	config.Rules[clause.CodeUnknownProperty] = tt.ConfigRule{Severity: tt.SeverityWarning}

	return lint.WriteConfig(configurationPath, config)
}
