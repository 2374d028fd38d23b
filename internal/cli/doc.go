// Package cli implements the starweave command-line interface: run,
// validate, and inspect.
package cli
