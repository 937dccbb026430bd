package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Scalar is a form value submitted either as a JSON number or a JSON string.
// It keeps the raw text so parsing happens in one explicit, fallible step.
type Scalar string

func (s *Scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
	case len(b) > 0 && b[0] == '"':
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Scalar(strings.TrimSpace(str))
	default:
		*s = Scalar(b)
	}

	return nil
}

// Blank reports whether nothing was submitted.
func (s Scalar) Blank() bool {
	return strings.TrimSpace(string(s)) == ""
}

// Float parses the value as a finite number.
func (s Scalar) Float() (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(string(s)), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", string(s))
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not a finite number", string(s))
	}
	return v, nil
}

// Int parses the value as an integer. Integral decimals such as "3.0" are accepted.
func (s Scalar) Int() (int64, error) {
	text := strings.TrimSpace(string(s))
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		return v, nil
	}

	f, err := s.Float()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return 0, fmt.Errorf("%q is not an integer", text)
	}
	return int64(f), nil
}

// OptionalScalar tells an absent key apart from one sent as null or "".
// A pointer cannot: encoding/json leaves it nil for null.
type OptionalScalar struct {
	Present bool
	Value   Scalar
}

func (o *OptionalScalar) UnmarshalJSON(b []byte) error {
	o.Present = true
	return o.Value.UnmarshalJSON(b)
}
