package analyzer

import "fmt"

// RequestError is a client mistake (HTTP 400).
type RequestError struct {
	Msg string
}

func (e *RequestError) Error() string { return e.Msg }

// UnsupportedTypeError rejects uploads that are neither images nor PDFs (HTTP 415).
type UnsupportedTypeError struct {
	MIMEType string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type: %s", e.MIMEType)
}

// UnreadableError is an upload of a supported type that cannot be decoded (HTTP 422).
type UnreadableError struct {
	Err error
}

func (e *UnreadableError) Error() string { return fmt.Sprintf("unreadable upload: %v", e.Err) }
func (e *UnreadableError) Unwrap() error { return e.Err }
