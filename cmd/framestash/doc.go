// Package main hosts the framestash CLI entrypoint and command graph.
//
// The Cobra-based command tree enqueues encode and decode jobs, runs them
// through ffmpeg, and exposes queue maintenance, throughput statistics,
// archive unpacking, readiness checks, and configuration scaffolding. It
// centralizes configuration resolution, logger setup, and the single-worker
// lock so subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality to the internal packages
// first, then surface it through dedicated commands or flags here.
package main
