package jobtop

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/common/model"
)

// NetworkError is a transport failure (Status 0) or a non-2xx response.
type NetworkError struct {
	Status  int
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("network error: %s", e.Message)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// PayloadParseError is a response body that is not the expected JSON.
type PayloadParseError struct {
	Status int
	Err    error
}

func (e *PayloadParseError) Error() string {
	return fmt.Sprintf("invalid payload: %v", e.Err)
}

func (e *PayloadParseError) Unwrap() error { return e.Err }

// MissingParameterError is a required parameter absent from the page.
type MissingParameterError struct {
	Name string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Name)
}

// WidthError is a sample whose tuple does not match the schema.
type WidthError struct {
	Timestamp model.Time
	Got       int
	Want      int
	Schema    SchemaVariant
}

func (e *WidthError) Error() string {
	return fmt.Sprintf("sample %d has %d channels, schema %s expects %d", e.Timestamp, e.Got, e.Schema, e.Want)
}

// errorMessage extracts the message of an error response: the "error"
// field of a JSON body, else the trimmed body, else the status text.
func errorMessage(status int, body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	if s := strings.TrimSpace(string(body)); s != "" {
		return s
	}
	return http.StatusText(status)
}

// ErrorEntry is one line of the error region.
type ErrorEntry struct {
	Time    time.Time `json:"time"`
	Status  int       `json:"status,omitempty"`
	Message string    `json:"message"`
}

func (e ErrorEntry) String() string {
	if e.Status == 0 {
		return "error: " + e.Message
	}
	return fmt.Sprintf("error %d: %s", e.Status, e.Message)
}

// ErrorReporter accumulates failures. Entries are only ever appended;
// repeated failures stay visible side by side.
type ErrorReporter struct {
	mu      sync.Mutex
	entries []ErrorEntry
	now     func() time.Time
}

func NewErrorReporter() *ErrorReporter {
	return &ErrorReporter{now: time.Now}
}

// Report appends one entry describing err.
func (r *ErrorReporter) Report(err error) {
	if err == nil {
		return
	}
	entry := ErrorEntry{Time: r.now(), Message: err.Error()}

	var netErr *NetworkError
	var parseErr *PayloadParseError
	switch {
	case errors.As(err, &netErr):
		entry.Status = netErr.Status
		entry.Message = netErr.Message
	case errors.As(err, &parseErr):
		entry.Status = parseErr.Status
		entry.Message = parseErr.Error()
	}

	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
}

// Entries returns a copy of everything reported so far, oldest first.
func (r *ErrorReporter) Entries() []ErrorEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ErrorEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Lines renders the entries as display strings.
func (r *ErrorReporter) Lines() []string {
	entries := r.Entries()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.String()
	}
	return lines
}

func (r *ErrorReporter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
