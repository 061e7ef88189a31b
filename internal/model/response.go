package model

// Envelope is the body of every JSON response the API emits.
type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    any               `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Debug   any               `json:"debug,omitempty"`
}
