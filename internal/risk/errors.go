package risk

import (
	"fmt"
	"time"
)

// MissingPriceError reports a bucket whose contract month has no applicable
// price observation at build time. A silent zero would understate risk, so
// the whole build aborts instead.
type MissingPriceError struct {
	Commodity string
	Month     time.Time
	AsOf      time.Time
}

func (e *MissingPriceError) Error() string {
	return fmt.Sprintf("no price for %s contract %s as of %s",
		e.Commodity, e.Month.Format("2006-01"), e.AsOf.Format("2006-01-02"))
}

// InvalidRangeError rejects a request before any computation begins.
type InvalidRangeError struct {
	Reason string
}

func (e *InvalidRangeError) Error() string {
	return "invalid range: " + e.Reason
}
