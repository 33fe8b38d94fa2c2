// Package listener translates failed Bitbucket API responses into typed errors.
//
// An ErrorListener inspects every completed HTTP exchange. It can be
// switched off for exactly one response (a probe request) or until it is
// switched back on. A listener is owned by one client and is not safe for
// concurrent mutation.
package listener

import (
	"encoding/json"

	"github.com/go-resty/resty/v2"

	gusherrors "github.com/gushphp/gush-bitbucket/pkg/shared/errors"
)

// State is the suppression state of an ErrorListener.
type State int

const (
	Enabled             State = iota // every failed response raises
	SuppressedOnce                   // the next response is passed through, then Enabled
	SuppressedPermanent              // all responses are passed through until Enable
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Enabled:
		return "enabled"
	case SuppressedOnce:
		return "disabled-once"
	case SuppressedPermanent:
		return "disabled-permanent"
	default:
		return "unknown"
	}
}

// Response is the part of a completed HTTP exchange the listener needs.
// *resty.Response satisfies it.
type Response interface {
	IsSuccess() bool
	Body() []byte
}

// statusCoder is implemented by responses that expose their HTTP status.
type statusCoder interface {
	StatusCode() int
}

// errorEnvelope is the JSON wrapper Bitbucket uses for error details.
type errorEnvelope struct {
	Error *struct {
		Message *string `json:"message"`
	} `json:"error"`
}

// ErrorListener raises an APIError for every failed response while enabled.
type ErrorListener struct {
	state State
}

// New returns an enabled ErrorListener.
func New() *ErrorListener {
	return &ErrorListener{state: Enabled}
}

// State reports the current suppression state.
func (l *ErrorListener) State() State {
	return l.state
}

// Disable suppresses error translation for the next response, or for all
// responses when permanent is true.
func (l *ErrorListener) Disable(permanent bool) {
	if permanent {
		l.state = SuppressedPermanent
		return
	}
	l.state = SuppressedOnce
}

// Enable restores error translation from any state.
func (l *ErrorListener) Enable() {
	l.state = Enabled
}

// Observe checks one completed response. It returns *errors.APIError when the
// listener is enabled and the response is not successful.
func (l *ErrorListener) Observe(resp Response) error {
	switch l.state {
	case SuppressedOnce:
		l.state = Enabled
		return nil
	case SuppressedPermanent:
		return nil
	}

	if resp.IsSuccess() {
		return nil
	}

	body := resp.Body()
	status := 0
	if sc, ok := resp.(statusCoder); ok {
		status = sc.StatusCode()
	}
	return gusherrors.NewAPIError(extractMessage(body), status, body)
}

// Middleware adapts the listener to resty's after-response hook.
func (l *ErrorListener) Middleware() resty.ResponseMiddleware {
	return func(_ *resty.Client, resp *resty.Response) error {
		return l.Observe(resp)
	}
}

// extractMessage returns error.message from the envelope, or a message
// embedding the raw body when the body is not JSON or has no message.
func extractMessage(body []byte) string {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != nil {
		return *envelope.Error.Message
	}
	return gusherrors.RawContentPrefix + string(body)
}
