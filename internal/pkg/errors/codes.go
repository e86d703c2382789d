package errors

// Code represents an error code with its process exit status and message
type Code struct {
	Code     int    // Business error code
	ExitCode int    // Process exit status
	Message  string // Error message
}

// Error codes for the dump tool
const (
	// Success
	Success = 0

	// Local input errors (1000-1999)
	ErrInternal      = 1000
	ErrConfiguration = 1001

	// Dump service errors (2000-2999)
	ErrValidation       = 2000
	ErrTransport        = 2001
	ErrUnexpectedStatus = 2002

	// Agency listing errors (3000-3999)
	ErrAgencyResolver = 3000

	// Output errors (4000-4999)
	ErrIO = 4000
)

// Process exit statuses
const (
	ExitOK               = 0
	ExitFailure          = 1
	ExitUsage            = 2
	ExitValidation       = 3
	ExitAgencyResolver   = 4
	ExitTransport        = 5
	ExitUnexpectedStatus = 6
	ExitIO               = 7
)

// codeMap maps error codes to their details
var codeMap = map[int]Code{
	Success: {Success, ExitOK, "Success"},

	ErrInternal:      {ErrInternal, ExitFailure, "Internal error"},
	ErrConfiguration: {ErrConfiguration, ExitUsage, "Configuration error"},

	ErrValidation:       {ErrValidation, ExitValidation, "Validation failed"},
	ErrTransport:        {ErrTransport, ExitTransport, "Transport error"},
	ErrUnexpectedStatus: {ErrUnexpectedStatus, ExitUnexpectedStatus, "Unexpected status from dump service"},

	ErrAgencyResolver: {ErrAgencyResolver, ExitAgencyResolver, "Could not list agencies"},

	ErrIO: {ErrIO, ExitIO, "I/O error"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternal]
}

// GetExitCode returns the process exit status for a given error code
func GetExitCode(code int) int {
	return GetCode(code).ExitCode
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}
