package transport

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope wraps every API response. Data carries the payload on success and,
// for degraded health checks, the dependency report alongside the error.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
	Meta   *Meta       `json:"meta,omitempty"`
}

// Meta describes list payloads.
type Meta struct {
	Count  int `json:"count"`
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

func NewSuccess(data interface{}) Envelope {
	return Envelope{Status: StatusSuccess, Data: data}
}

// NewList returns a success envelope whose meta counts the returned items.
func NewList(items interface{}, meta Meta) Envelope {
	return Envelope{Status: StatusSuccess, Data: items, Meta: &meta}
}

// NewError returns an error envelope. code is a domain error code such as NOT_FOUND.
func NewError(code, message string) Envelope {
	return Envelope{Status: StatusError, Code: code, Error: message}
}

// WithData attaches a payload to the envelope.
func (e Envelope) WithData(data interface{}) Envelope {
	e.Data = data
	return e
}
