// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the run lifecycle (create the root scope,
// resolve the requested unit, report, exit), decoupled from any specific
// entrypoint like a CLI.
package app
