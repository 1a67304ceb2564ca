package yahoo

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// The upstream serializes scalars inconsistently between endpoints and
// between seasons: booleans arrive as 1, "1", or true; integers as 5 or
// "5"; missing numerics as "" or "-". The Flex types absorb all of these.

// FlexBool accepts 1/"1"/true and 0/"0"/""/false.
type FlexBool bool

// UnmarshalJSON implements json.Unmarshaler.
func (b *FlexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	switch strings.ToLower(s) {
	case "1", "true":
		*b = true
	case "", "0", "false", "null", "-":
		*b = false
	default:
		return fmt.Errorf("cannot parse %q as bool", s)
	}
	return nil
}

// Bool returns the plain bool value.
func (b FlexBool) Bool() bool { return bool(b) }

// FlexInt accepts 5, "5", 5.0, and treats ""/"-"/null as zero.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "-" || s == "null" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("cannot parse %q as int", s)
	}
	*n = FlexInt(int(f))
	return nil
}

// Int returns the plain int value.
func (n FlexInt) Int() int { return int(n) }

// FlexFloat accepts 1.5 and "1.5". ""/"-"/null parse as invalid rather
// than zero, because the upstream uses "-" for "did not play".
type FlexFloat struct {
	Float64 float64
	Valid   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "-" || s == "null" {
		f.Valid = false
		f.Float64 = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("cannot parse %q as float", s)
	}
	f.Float64 = v
	f.Valid = true
	return nil
}

// collection accepts both a plain JSON array and the upstream's numbered
// object form {"0": {...}, "1": {...}, "count": 2}.
type collection[T any] struct {
	Items []T
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *collection[T]) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		c.Items = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		return json.Unmarshal(data, &c.Items)
	}

	var numbered map[string]json.RawMessage
	if err := json.Unmarshal(data, &numbered); err != nil {
		return fmt.Errorf("cannot parse collection: %w", err)
	}
	c.Items = c.Items[:0]
	for i := 0; ; i++ {
		raw, ok := numbered[strconv.Itoa(i)]
		if !ok {
			break
		}
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return fmt.Errorf("cannot parse collection item %d: %w", i, err)
		}
		c.Items = append(c.Items, item)
	}
	return nil
}
