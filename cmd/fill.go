package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gnolang/eql/filler"
	"github.com/gnolang/eql/parser"
)

var (
	fillParams  string
	fillRuntime string
	fillParent  bool
	fillSet     []string
)

var fillCmd = &cobra.Command{
	Use:   "fill [query]",
	Short: "Replace @parameters in a query with their values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, data, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		res := parser.Parse(string(data), true)
		if err := res.Err(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		params, err := loadParams(fillParams)
		if err != nil {
			return err
		}
		if len(fillSet) > 0 {
			if params, err = overrideParams(params, fillSet); err != nil {
				return err
			}
		}

		var out string
		if fillParent {
			if fillRuntime == "" {
				return errors.New("--parent needs the --runtime alias")
			}
			out, err = filler.FillParent(res.Root, params, fillRuntime)
		} else {
			out, err = filler.Fill(res.Root, params, filler.WithRuntimeParam(fillRuntime))
		}
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
		return err
	},
}

func init() {
	fillCmd.Flags().StringVar(&fillParams, "params", "", "Parameter values as a JSON or YAML object")
	fillCmd.Flags().StringVar(&fillRuntime, "runtime", "", "Alias of the parent query whose fields are known at run time")
	fillCmd.Flags().BoolVar(&fillParent, "parent", false, "Fill only the runtime parent parameters")
	fillCmd.Flags().StringArrayVar(&fillSet, "set", nil, "Override a parameter as name=value (repeatable)")
}

// loadParams reads parameter values. JSON files are queried in place,
// anything else is decoded as YAML.
func loadParams(path string) (filler.Params, error) {
	if path == "" {
		return filler.MapParams{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading parameters: %w", err)
	}
	if filepath.Ext(path) == ".json" {
		return filler.NewJSONParams(data)
	}

	params := filler.MapParams{}
	if err := yaml.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("error parsing parameters: %w", err)
	}
	return params, nil
}

// overrideParams applies name=value assignments on top of params. Values
// are read as YAML scalars, so numbers and booleans keep their type.
func overrideParams(params filler.Params, assignments []string) (filler.Params, error) {
	var doc filler.JSONParams
	switch p := params.(type) {
	case filler.JSONParams:
		doc = p
	case filler.MapParams:
		d, err := json.Marshal(map[string]any(p))
		if err != nil {
			return nil, fmt.Errorf("error converting parameters: %w", err)
		}
		if doc, err = filler.NewJSONParams(d); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("cannot override parameters of type %T", params)
	}

	for _, assignment := range assignments {
		name, raw, ok := strings.Cut(assignment, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter assignment %q, expected name=value", assignment)
		}
		var value any = raw
		var decoded any
		if err := yaml.Unmarshal([]byte(raw), &decoded); err == nil && decoded != nil {
			value = decoded
		}

		var err error
		if doc, err = doc.With(name, value); err != nil {
			return nil, err
		}
	}
	return doc, nil
}
