package core

// Logger is the application logger.
// args may hold errors, map[string]interface{} extras and at most one Person.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person is the authenticated actor a log entry is attributed to.
type Person struct {
	ID       string
	Username string
	Email    string
}
