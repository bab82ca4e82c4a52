// Package main hosts the mediaflow CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration, builds the capability
// pipeline, and renders transcripts, run listings, and preflight results.
// Long-running commands (run, resume, watch) stop cleanly on SIGINT/SIGTERM;
// an interrupted run can be continued later with "mediaflow resume".
//
// Keep this package lean: behaviour belongs in internal packages and is only
// surfaced here through commands and flags.
package main
