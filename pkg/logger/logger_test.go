package logger

import (
	"errors"
	"testing"
	"time"
)

func TestFieldKeyValues(t *testing.T) {
	cases := []struct {
		field Field
		key   string
		value interface{}
	}{
		{String("s", "v"), "s", "v"},
		{Int("n", 7), "n", 7},
		{Int64("elapsed_ms", int64(1500)), "elapsed_ms", int64(1500)},
		{Float("f", 1.5), "f", 1.5},
		{Error(errors.New("boom")), "error", "boom"},
		{Duration("d", 2 * time.Second), "d", 2000},
	}
	for _, tc := range cases {
		k, v := tc.field.GetKeyValue()
		if k != tc.key {
			t.Errorf("key = %q, want %q", k, tc.key)
		}
		if v != tc.value {
			t.Errorf("%s: value = %v (%T), want %v (%T)", tc.key, v, v, tc.value, tc.value)
		}
	}
}
