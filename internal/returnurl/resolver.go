package returnurl

import (
	"net/url"
	"strconv"
)

// Query parameters the hosted payment page carries back on its redirect.
// They are the whole contract: no in-memory continuation survives the
// detour through the provider's domain, so the order identifier must ride
// in the URL itself.
const (
	ParamSuccess = "payment_success"
	ParamOrderID = "order_id"
	SuccessValue = "1"
)

// Signal is the captured "payment succeeded for order N" fact.
type Signal struct {
	OrderID int64
}

// Resolve inspects a return URL for the completion signal. When both the
// success flag and a parseable integer order id are present it returns the
// signal plus the URL with those two parameters removed, so re-visiting or
// sharing the stripped URL cannot re-trigger confirmation. Any other URL is
// returned unchanged with ok false.
func Resolve(rawURL string) (Signal, string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Signal{}, rawURL, false
	}

	query := parsed.Query()
	if query.Get(ParamSuccess) != SuccessValue {
		return Signal{}, rawURL, false
	}
	orderID, err := strconv.ParseInt(query.Get(ParamOrderID), 10, 64)
	if err != nil {
		return Signal{}, rawURL, false
	}

	query.Del(ParamSuccess)
	query.Del(ParamOrderID)
	parsed.RawQuery = query.Encode()

	return Signal{OrderID: orderID}, parsed.String(), true
}
