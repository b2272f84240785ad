package risk

import (
	"errors"
	"math"
	"time"
)

func timeMonth(m int) time.Month { return time.Month(m) }

func parseDate(s string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func asError[T error](err error, target *T) bool {
	return errors.As(err, target)
}

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
