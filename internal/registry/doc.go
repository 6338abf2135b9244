// Package registry stores function definitions.
//
// The Registry keeps every definition in memory and mirrors it to a
// directory with one JSON document per function, named after the function
// (<dir>/<name>.json). It is opened once at startup, which loads every
// document in the directory, and every change is written to disk before the
// in-memory copy is updated.
package registry
