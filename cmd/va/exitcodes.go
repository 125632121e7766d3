package main

// Exit codes used by all commands.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (runtime failure, service error)
	ExitConfigError = 2 // Configuration error (missing credentials, bad settings)
	ExitDataError   = 3 // Data error (malformed input, validation failure)
)
