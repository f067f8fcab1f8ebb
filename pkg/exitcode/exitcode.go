// Package exitcode provides standardized exit codes for codelyzer
package exitcode

// Exit codes for the codelyzer CLI
const (
	Success           = 0
	GeneralError      = 1
	ConfigError       = 2
	SeverityThreshold = 3
	FileSystemError   = 4
	UnsupportedFormat = 8
)

// String returns a human-readable description of the exit code
func String(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case ConfigError:
		return "Configuration error"
	case SeverityThreshold:
		return "Findings at or above fail-on severity"
	case FileSystemError:
		return "File system error"
	case UnsupportedFormat:
		return "Unsupported format"
	default:
		return "Unknown error"
	}
}
