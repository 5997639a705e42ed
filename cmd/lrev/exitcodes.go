package main

// Exit codes.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing config, not a repository)
	ExitDataError   = 3 // Data error (malformed input, validation failure)
	ExitStaleBase   = 4 // Commit rejected: snapshot changed under the caller
	ExitNotFound    = 5 // Paper or ledger entry not found
)
