package core

// Process exit codes. Config problems get their own code so service wrappers
// can tell a bad .env apart from a runtime crash.
const (
	ExitCodeSuccess     = 0
	ExitCodeError       = 1
	ExitCodeConfigError = 2
)
