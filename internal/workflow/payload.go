package workflow

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"time"
)

// DateLayout is the calendar date format accepted for payload dates.
const DateLayout = "2006-01-02"

// Ref is a directory reference in a payload. It decodes from a JSON string
// or a JSON number, so `"5"` and `5` name the same deposit.
type Ref string

func (r Ref) String() string { return strings.TrimSpace(string(r)) }

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Ref(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return &json.UnmarshalTypeError{Value: string(data), Type: reflect.TypeOf(r).Elem()}
	}
	*r = Ref(n.String())
	return nil
}

// Date is a payload date. It accepts a calendar date (2006-01-02) or an
// RFC 3339 timestamp; calendar dates are taken as UTC midnight.
type Date time.Time

// NewDate wraps t.
func NewDate(t time.Time) *Date {
	d := Date(t)
	return &d
}

// Time returns the wrapped time.
func (d Date) Time() time.Time { return time.Time(d) }

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &json.UnmarshalTypeError{Value: string(data), Type: reflect.TypeOf(d).Elem()}
	}
	t, err := ParseDate(s)
	if err != nil {
		return &json.UnmarshalTypeError{Value: "string " + s, Type: reflect.TypeOf(d).Elem()}
	}
	*d = Date(t)
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(d))
}

// ParseDate reads a calendar date or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
