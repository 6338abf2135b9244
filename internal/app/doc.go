// Package app contains the core application wiring. It defines the main App
// struct, its configuration, and the lifecycle of the HTTP server,
// decoupled from any specific entrypoint like a CLI command.
package app
