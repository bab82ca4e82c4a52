// Package preflight provides readiness checks for the directories and
// services mediaflow depends on.
//
// The CLI "mediaflow check" command runs RunAll and renders the results.
// "mediaflow run" calls it too and refuses to start when a required check
// fails, so a run never dies halfway through on a missing mount.
//
// Checks gated by configuration are skipped when the feature is disabled.
package preflight
