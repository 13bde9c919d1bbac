package email

// Request holds the caller-supplied fields of one send invocation.
type Request struct {
	SenderAccount string
	To            string
	Cc            string
	Bcc           string
	Subject       string
	Body          string
	MailType      string
	Encoding      string
}

// NewRequest returns a Request with every optional field set to its default.
func NewRequest() Request {
	return Request{
		Subject:  DefaultSubject,
		MailType: DefaultMailType,
		Encoding: DefaultEncoding,
	}
}

// Status is the outcome reported to the host.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is the normalized outcome of a send.
type Result struct {
	Status       Status `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// Success returns a successful Result.
func Success() Result {
	return Result{Status: StatusSuccess}
}

// Failure returns an error Result carrying msg.
func Failure(msg string) Result {
	return Result{Status: StatusError, ErrorMessage: msg}
}

// OK reports whether the send succeeded.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// ConnectionResult is the outcome of a connection test.
type ConnectionResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}
