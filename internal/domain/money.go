package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Money is a decimal amount carried as a float64 on the wire. The remote
// store and older exports are loose about numeric typing, so decoding
// accepts JSON numbers, quoted numbers, and null; anything unparseable
// coerces to 0 instead of failing the whole record.
type Money float64

func (m Money) Float64() float64 {
	return float64(m)
}

func (m *Money) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*m = 0
		return nil
	}

	if trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			*m = 0
			return nil
		}
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			*m = 0
			return nil
		}
		*m = Money(parsed)
		return nil
	}

	var parsed float64
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		*m = 0
		return nil
	}
	*m = Money(parsed)
	return nil
}
