// Package main hosts the subflow CLI entrypoint and command graph.
//
// The Cobra-based command tree drives one subtitle pipeline run per
// invocation (`subflow run`), lists the service's language catalog and the
// configured formats, shows local run history, runs preflight checks, and
// scaffolds configuration. It centralizes configuration resolution, logger
// setup, and remote client construction so subcommands can focus on user
// experience instead of wiring.
//
// Keep this package lean: pipeline semantics live in internal/pipeline and
// the transport in internal/remote; commands here only compose them.
package main
