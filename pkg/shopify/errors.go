package shopify

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when the platform answers 2xx with a body we cannot use.
var ErrMalformedResponse = errors.New("shopify: malformed response")

// UpstreamError is a non-2xx answer from the platform. Body is kept for operator diagnostics.
type UpstreamError struct {
	Op     string
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("shopify %s failed: status=%d body=%s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("shopify %s failed: status=%d", e.Op, e.Status)
}
