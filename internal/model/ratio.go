package model

import (
	"encoding/json"
	"strconv"
)

// NA is how an undefined ratio renders in text output.
const NA = "N/A"

// Ratio is a derived metric that may be undefined. A ratio with a zero
// denominator is not an error and not zero; it is simply undefined, rendered
// as null in JSON and "N/A" in text.
type Ratio struct {
	Value float64
	Valid bool
}

// SafeDiv divides num by den, returning an undefined Ratio when den is zero.
func SafeDiv(num, den float64) Ratio {
	if den == 0 {
		return Ratio{}
	}
	return Ratio{Value: num / den, Valid: true}
}

// Scaled multiplies a defined ratio by k; undefined stays undefined.
func (r Ratio) Scaled(k float64) Ratio {
	if !r.Valid {
		return Ratio{}
	}
	return Ratio{Value: r.Value * k, Valid: true}
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

func (r *Ratio) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = Ratio{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = Ratio{Value: v, Valid: true}
	return nil
}

// String formats the ratio with the minimal number of digits, so export
// round-trips reproduce the value exactly.
func (r Ratio) String() string {
	if !r.Valid {
		return NA
	}
	return strconv.FormatFloat(r.Value, 'f', -1, 64)
}

// ParseRatio is the inverse of String.
func ParseRatio(s string) (Ratio, error) {
	if s == NA {
		return Ratio{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Ratio{}, err
	}
	return Ratio{Value: v, Valid: true}, nil
}
