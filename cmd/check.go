package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/eql/formatter"
	"github.com/gnolang/eql/internal"
	tt "github.com/gnolang/eql/internal/types"
	"github.com/gnolang/eql/lint"
)

var (
	ignoreRules     string
	ignorePaths     string
	checkJSONOutput bool
	outPath         string
	watchFiles      bool
)

var checkCmd = &cobra.Command{
	Use:   "check [paths...]",
	Short: "Check query files for syntax and grammar issues",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("please provide file or directory paths")
		}

		config, err := lint.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		engine, err := lint.New(config)
		if err != nil {
			return fmt.Errorf("failed to initialize check engine: %w", err)
		}

		for _, rule := range splitList(ignoreRules) {
			engine.IgnoreRule(rule)
		}
		for _, path := range splitList(ignorePaths) {
			engine.IgnorePath(path)
		}

		if watchFiles {
			return runWatch(cmd.Context(), engine, args, cmd.OutOrStdout())
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		return runCheck(ctx, logger, engine, args, cmd.OutOrStdout(), checkJSONOutput, outPath)
	},
}

func init() {
	checkCmd.Flags().StringVar(&ignoreRules, "ignore", "", "Comma-separated list of issue codes to ignore")
	checkCmd.Flags().StringVar(&ignorePaths, "ignore-paths", "", "Comma-separated list of paths to ignore")
	checkCmd.Flags().BoolVar(&checkJSONOutput, "json", false, "Output issues in JSON format")
	checkCmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (when using JSON)")
	checkCmd.Flags().BoolVar(&watchFiles, "watch", false, "Check files again whenever they change")
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func runCheck(ctx context.Context, logger *zap.Logger, engine lint.LintEngine, paths []string, out io.Writer, isJSON bool, jsonOutput string) error {
	issues, err := lint.ProcessFiles(ctx, logger, engine, paths, lint.ProcessFile)
	if err != nil {
		return err
	}

	if err := printIssues(logger, out, issues, isJSON, jsonOutput); err != nil {
		return err
	}

	if len(issues) > 0 {
		return ErrIssuesFound
	}
	return nil
}

func printIssues(logger *zap.Logger, out io.Writer, issues []tt.Issue, isJSON bool, jsonOutput string) error {
	issuesByFile := make(map[string][]tt.Issue)
	for _, issue := range issues {
		issuesByFile[issue.Filename] = append(issuesByFile[issue.Filename], issue)
	}

	if isJSON {
		d, err := json.Marshal(issuesByFile)
		if err != nil {
			return fmt.Errorf("error marshalling issues to JSON: %w", err)
		}
		if jsonOutput == "" {
			_, err = fmt.Fprintln(out, string(d))
			return err
		}
		return os.WriteFile(jsonOutput, d, 0o644)
	}

	sortedFiles := make([]string, 0, len(issuesByFile))
	for filename := range issuesByFile {
		sortedFiles = append(sortedFiles, filename)
	}
	sort.Strings(sortedFiles)

	for _, filename := range sortedFiles {
		sourceCode, err := internal.ReadSourceCode(filename)
		if err != nil {
			logger.Error("Error reading source file", zap.String("file", filename), zap.Error(err))
			continue
		}
		fmt.Fprint(out, formatter.GenerateFormattedIssue(issuesByFile[filename], sourceCode))
	}
	return nil
}

func runWatch(ctx context.Context, engine *internal.Engine, paths []string, out io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	w, err := engine.NewWatcher(logger, lint.HasQueryExtension, func(filename string, issues []tt.Issue) {
		if len(issues) == 0 {
			fmt.Fprintf(out, "%s: no issues\n", filename)
			return
		}
		if err := printIssues(logger, out, issues, false, ""); err != nil {
			logger.Error("Error printing issues", zap.String("file", filename), zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	if err := w.Add(paths...); err != nil {
		_ = w.Close()
		return err
	}

	logger.Info("Watching for changes", zap.Strings("paths", paths))
	return w.Run(ctx)
}
