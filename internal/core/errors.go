package core

// ServerError wraps a code and human-readable message reported by the server.
// These never abort the engine; they are logged and the session continues.
type ServerError struct {
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}
