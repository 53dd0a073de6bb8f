package graphql

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/enjincraft/platform-go/pkg/logger"
)

// ResponseCode is the domain status a response classifies to. Values
// mirror the platform's HTTP and GraphQL error codes.
type ResponseCode int

const (
	CodeInitialized  ResponseCode = 0
	CodeInternal     ResponseCode = 1
	CodeSuccess      ResponseCode = 200
	CodeBadRequest   ResponseCode = 400
	CodeUnauthorized ResponseCode = 401
	CodeNotFound     ResponseCode = 404
	CodeInvalid      ResponseCode = 405
	CodeDataConflict ResponseCode = 409
	CodeUnknown      ResponseCode = 999
)

func (c ResponseCode) String() string {
	switch c {
	case CodeInitialized:
		return "INITIALIZED"
	case CodeInternal:
		return "INTERNAL"
	case CodeSuccess:
		return "SUCCESS"
	case CodeBadRequest:
		return "BAD_REQUEST"
	case CodeUnauthorized:
		return "UNAUTHORIZED"
	case CodeNotFound:
		return "NOT_FOUND"
	case CodeInvalid:
		return "INVALID"
	case CodeDataConflict:
		return "DATA_CONFLICT"
	case CodeUnknown:
		return "UNKNOWN"
	default:
		return fmt.Sprintf("CODE_%d", int(c))
	}
}

// Status tracks the lifecycle of a single query.
type Status int

const (
	StatusNeutral Status = iota
	StatusLoading
	StatusComplete
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusNeutral:
		return "neutral"
	case StatusLoading:
		return "loading"
	case StatusComplete:
		return "complete"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrorStatus carries the code and message parsed from a GraphQL
// errors array.
type ErrorStatus struct {
	Code    int
	Message string
}

// Response is the classified outcome of one Post call.
type Response struct {
	StatusCode int
	Body       []byte
	Status     Status
	Code       ResponseCode
	Err        *ErrorStatus

	valid bool
}

// newResponse classifies a raw HTTP outcome. A body carrying an
// "errors" field takes precedence over the HTTP status; otherwise the
// HTTP status code is the domain status. The fixed table of error codes
// logs a descriptive line and marks the response invalid; unrecognized
// non-200 codes without an errors body are left for caller inspection.
func newResponse(statusCode int, body []byte, log *logger.Logger) *Response {
	resp := &Response{
		StatusCode: statusCode,
		Body:       body,
		Status:     StatusComplete,
		valid:      true,
	}

	if errs := gjson.GetBytes(body, "errors"); errs.Exists() {
		first := errs.Get("0")
		resp.Err = &ErrorStatus{
			Code:    int(first.Get("code").Int()),
			Message: first.Get("message").String(),
		}
		if resp.Err.Code != 0 {
			resp.Code = ResponseCode(resp.Err.Code)
		} else {
			resp.Code = CodeInternal
		}
		log.Debug("error response", "body", string(body))
	} else {
		resp.Code = ResponseCode(statusCode)
	}

	switch resp.Code {
	case CodeBadRequest:
		log.Error("bad request", "response", string(body))
	case CodeUnauthorized:
		log.Error("unauthorized request", "response", string(body))
	case CodeNotFound:
		log.Error("request not found", "response", string(body))
	case CodeInvalid:
		log.Error("invalid call to serving url", "response", string(body))
	case CodeDataConflict:
		log.Error("object already exists", "response", string(body))
	case CodeInternal, CodeUnknown:
		log.Error("internal request error", "response", string(body))
	default:
		return resp
	}

	resp.Status = StatusError
	resp.valid = false
	return resp
}

// Valid reports whether the response classified as usable. Callers
// must check it before reading derived values.
func (r *Response) Valid() bool { return r.valid }

// Data returns the result at the given gjson path of the body, e.g.
// "data.request" or "data.result.0.id".
func (r *Response) Data(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

// Decode unmarshals the JSON value at path into v. A missing path is
// an error so callers never silently decode from nothing.
func (r *Response) Decode(path string, v any) error {
	res := gjson.GetBytes(r.Body, path)
	if !res.Exists() {
		return fmt.Errorf("graphql: response has no %q", path)
	}
	if err := json.Unmarshal([]byte(res.Raw), v); err != nil {
		return fmt.Errorf("graphql: decode %q: %w", path, err)
	}
	return nil
}
