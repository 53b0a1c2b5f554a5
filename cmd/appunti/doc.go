// Package main hosts the appunti CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into upload
// pipeline runs, history lookups against the notes backend, local run
// journal queries, drop-folder watching, and configuration scaffolding. It
// centralizes configuration resolution and logger setup so subcommands can
// focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
