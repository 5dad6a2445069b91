package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/eql/lint"
	"github.com/gnolang/eql/parser"
	"github.com/gnolang/eql/printer"
)

var (
	fmtWrite  bool
	fmtList   bool
	fmtTab    int
	fmtUnwrap bool
)

var errNotFormatted = errors.New("some files could not be formatted")

var fmtCmd = &cobra.Command{
	Use:   "fmt [paths...]",
	Short: "Pretty-print query files",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := lint.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		tabWidth := config.Format.TabWidth
		if cmd.Flags().Changed("tab") {
			tabWidth = fmtTab
		}
		unwrap := config.Format.UnwrapParameters || fmtUnwrap

		if len(args) == 0 {
			_, data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			formatted, err := formatSource(data, tabWidth, unwrap)
			if err != nil {
				return fmt.Errorf("%s: %w", stdinName, err)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), formatted)
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		return formatPaths(ctx, cmd.OutOrStdout(), args, tabWidth, unwrap)
	},
}

func init() {
	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "Write the result to the source file instead of standard output")
	fmtCmd.Flags().BoolVarP(&fmtList, "list", "l", false, "List files whose formatting differs")
	fmtCmd.Flags().IntVar(&fmtTab, "tab", 2, "Indentation width in spaces")
	fmtCmd.Flags().BoolVar(&fmtUnwrap, "unwrap", false, `Write quoted parameters such as "@size" bare`)
}

// formatSource pretty-prints a query. Queries with syntax errors are left
// alone.
func formatSource(data []byte, tabWidth int, unwrap bool) (string, error) {
	res := parser.Parse(string(data), true)
	if err := res.Err(); err != nil {
		return "", err
	}
	if res.Root == nil {
		return "", nil
	}
	return printer.Pretty(res.Root, tabWidth, unwrap) + "\n", nil
}

func formatPaths(ctx context.Context, out io.Writer, paths []string, tabWidth int, unwrap bool) error {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("error accessing %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		found, err := lint.CollectFiles(path)
		if err != nil {
			return err
		}
		files = append(files, found...)
	}

	failed := false
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("error reading file: %w", err)
		}
		formatted, err := formatSource(data, tabWidth, unwrap)
		if err != nil {
			logger.Error("Not formatting file with syntax errors", zap.String("file", file), zap.Error(err))
			failed = true
			continue
		}

		changed := formatted != string(data)
		if fmtList && changed {
			fmt.Fprintln(out, file)
		}
		if fmtWrite {
			if changed {
				if err := os.WriteFile(file, []byte(formatted), 0o644); err != nil {
					return fmt.Errorf("error writing file: %w", err)
				}
			}
			continue
		}
		if !fmtList {
			fmt.Fprint(out, formatted)
		}
	}

	if failed {
		return errNotFormatted
	}
	return nil
}
