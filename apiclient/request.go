package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Request is an API call in a form that can be sent more than once: the body
// is held as bytes so a replay after refresh sends the same payload.
type Request struct {
	Method string
	Path   string
	Body   []byte
	Header http.Header

	retried  bool   // set on the single replay after a refresh
	sentWith string // token attached on the last attempt
}

// Retried reports whether this request is the replay issued after a refresh.
func (r *Request) Retried() bool {
	return r.retried
}

// replayCopy returns the one-shot retry of r.
func (r *Request) replayCopy() *Request {
	c := *r
	c.Header = r.Header.Clone()
	c.retried = true
	c.sentWith = ""
	return &c
}

// Response is a successful API response.
type Response struct {
	Status int
	Header http.Header
	Data   json.RawMessage
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("decode response: empty body")
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// encodeBody accepts nil, raw bytes, json.RawMessage or any value that
// marshals to JSON.
func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		return data, nil
	}
}
