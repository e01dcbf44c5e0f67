package preflight

import (
	"spritebridge/internal/config"
	"spritebridge/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Project checks only run in project mode.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	var results []Result

	results = append(results, CheckDirectoryAccess("Watch directory", cfg.Paths.WatchDir))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	if cfg.ProjectMode() {
		results = append(results, CheckProjectFile(cfg.Project.YYP))
	}

	for _, missing := range deps.MissingRequired(CheckSystemDeps(cfg)) {
		results = append(results, Result{Name: missing.Name, Detail: missing.Detail})
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
