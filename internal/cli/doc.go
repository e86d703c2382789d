// Package cli parses the rrdump command line, validates operator input and
// maps the outcome of a run to a process exit status.
package cli
