// Package main hosts the spritebridge CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into exports,
// project imports, palette and project inspection, the foreground watch
// loop, music conversion, and configuration scaffolding. It centralizes
// configuration resolution and logging setup so subcommands can focus on
// output instead of wiring.
//
// Keep this package lean: add new functionality in the internal packages
// first, then surface it through dedicated commands or flags here.
package main
