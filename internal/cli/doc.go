// Package cli implements the facegate operator console: a line-oriented
// REPL that loads captures from disk, collects names and passwords, runs the
// registration and authorization workflows and prints their outcomes.
package cli
