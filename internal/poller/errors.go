package poller

import "errors"

var errNoReadings = errors.New("poller: gateway returned no usable readings")
