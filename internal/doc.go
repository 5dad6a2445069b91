// Package internal provides the check engine behind the eql command line.
//
// Key components:
//
// Engine: parses query files, marks them against a clause registry and turns
// parser and grammar errors into issues with 1-based positions. Issue codes
// can be ignored or given another severity.
//
// Watcher: re-checks query files when they are written, using a Cache to
// skip events for files whose content did not change.
//
// SourceCode: the lines of a file, used when rendering issues.
//
// Usage:
//
//	engine, err := internal.NewEngine(internal.Options{AllowParameters: true})
//	if err != nil {
//	    // handle error
//	}
//	issues, err := engine.Run("query.json")
package internal
