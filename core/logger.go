package core

// Logger is any service that can log leveled messages.
// Implementations may inspect args for known types (errors, user info)
// and report them to an external service.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
