package lint

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gnolang/eql/clause"
	"github.com/gnolang/eql/internal"
	tt "github.com/gnolang/eql/internal/types"
)

type LintEngine interface {
	Run(filePath string) ([]tt.Issue, error)
	RunSource(source []byte) ([]tt.Issue, error)
	IgnoreRule(rule string)
	IgnorePath(path string)
}

// New creates an engine for the given configuration.
func New(config Config) (*internal.Engine, error) {
	var registry *clause.Registry
	if config.Clauses.Registry != "" {
		var err error
		registry, err = clause.LoadRegistryFile(config.Clauses.Registry)
		if err != nil {
			return nil, err
		}
	}

	return internal.NewEngine(internal.Options{
		Registry:        registry,
		Root:            config.Clauses.Root,
		AllowParameters: config.Parser.AllowParameters,
		Rules:           config.Rules,
	})
}

func ProcessSources(
	ctx context.Context,
	logger *zap.Logger,
	engine LintEngine,
	sources [][]byte,
	processor func(LintEngine, []byte) ([]tt.Issue, error),
) ([]tt.Issue, error) {
	var allIssues []tt.Issue
	for i, source := range sources {
		if err := ctx.Err(); err != nil {
			return allIssues, err
		}
		issues, err := processor(engine, source)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing source", zap.Int("source", i), zap.Error(err))
			}
			return nil, err
		}
		allIssues = append(allIssues, issues...)
	}

	return allIssues, nil
}

func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine LintEngine,
	paths []string,
	processor func(LintEngine, string) ([]tt.Issue, error),
) ([]tt.Issue, error) {
	var allIssues []tt.Issue
	for _, path := range paths {
		issues, err := ProcessPath(ctx, logger, engine, path, processor)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			}
			return nil, err
		}
		allIssues = append(allIssues, issues...)
	}

	return allIssues, nil
}

// ProcessPath runs processor on a file, or on every query file under a
// directory using one worker per CPU. Files that fail are logged and
// skipped. Issues keep the lexical order of the files.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine LintEngine,
	path string,
	processor func(LintEngine, string) ([]tt.Issue, error),
) ([]tt.Issue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	if !info.IsDir() {
		if !HasQueryExtension(path) {
			return nil, nil
		}
		return processor(engine, path)
	}

	files, err := CollectFiles(path)
	if err != nil {
		return nil, err
	}

	var progress io.Writer = io.Discard
	if isatty.IsTerminal(os.Stderr.Fd()) {
		progress = os.Stderr
	}
	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionSetDescription(path),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))

	results := make([][]tt.Issue, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	for i, filePath := range files {
		i, filePath := i, filePath
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			defer bar.Add(1)

			fileIssues, err := processor(engine, filePath)
			if err != nil {
				logger.Error("Error processing file", zap.String("file", filePath), zap.Error(err))
				return nil
			}
			results[i] = fileIssues
			return nil
		})
	}

	err = g.Wait()
	_ = bar.Finish()

	var issues []tt.Issue
	for _, r := range results {
		issues = append(issues, r...)
	}
	return issues, err
}

// CollectFiles lists the query files under root in lexical order.
func CollectFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && HasQueryExtension(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", root, err)
	}
	return files, nil
}

func ProcessFile(engine LintEngine, filePath string) ([]tt.Issue, error) {
	return engine.Run(filePath)
}

func ProcessSource(engine LintEngine, source []byte) ([]tt.Issue, error) {
	return engine.RunSource(source)
}

var desiredExtensions = map[string]bool{
	".json": true,
	".eql":  true,
}

// HasQueryExtension reports whether path names a query file.
func HasQueryExtension(path string) bool {
	return desiredExtensions[filepath.Ext(path)]
}
