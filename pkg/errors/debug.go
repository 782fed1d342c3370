package errors

import (
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ErrorDump is a flattened view of an error chain for debug logging. Transport
// failures get their url.Error fields pulled out so a stalled backend is
// readable without grepping the chain.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	URLOp      string `json:"url_op,omitempty"`
	URL        string `json:"url,omitempty"`
	Timeout    bool   `json:"timeout,omitempty"`
	DNSFailure bool   `json:"dns_failure,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		d.URLOp = urlErr.Op
		d.URL = urlErr.URL
		d.Timeout = urlErr.Timeout()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		d.Timeout = true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		d.DNSFailure = true
	}

	return d
}
