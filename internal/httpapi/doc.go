// Package httpapi exposes the function registry and the execution engine
// over HTTP with JSON request and response bodies.
package httpapi
