// Package preflight provides readiness checks for the directories, tools,
// and project file that spritebridge depends on.
//
// These checks run in two contexts:
//   - The watch command calls RunAll before taking the watch lock. If any
//     check fails, it refuses to start rather than failing every export.
//   - The CLI "spritebridge status" command uses individual check functions
//     (CheckDirectoryAccess, CheckProjectFromConfig) to display health.
//
// Project checks are skipped in standalone mode.
package preflight
