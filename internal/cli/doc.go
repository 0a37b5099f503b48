// Package cli is responsible for parsing command-line arguments, validating
// user input, and handling process-level concerns like exit codes. It
// translates CLI flags, the optional config file and the environment into
// the application's configuration, in that order of precedence.
package cli
