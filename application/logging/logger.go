package logging

// Logger is the logging contract every component depends on.
type Logger interface {
	Printf(format string, v ...any)
}
