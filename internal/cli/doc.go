// Package cli implements the paramfn command line. It parses flags into the
// application's configuration, runs one subcommand against the function
// registry and translates failures into process exit codes.
package cli
