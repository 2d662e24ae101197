package course

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Amount is a money field. Missing, null or malformed values decode as zero
// so one bad course never poisons a whole catalog response.
type Amount struct {
	decimal.Decimal
}

func NewAmount(v float64) Amount { return Amount{decimal.NewFromFloat(v)} }

func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		d = decimal.Zero
	}
	a.Decimal = d
	return nil
}

// Number is a lenient float used for durations and rating samples.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		f = 0
	}
	*n = Number(f)
	return nil
}

// IDList holds user ids. The API sends either plain ids or populated user
// objects; both decode to ids.
type IDList []string

func (l *IDList) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil || raw == nil {
		*l = nil
		return nil
	}

	out := make(IDList, 0, len(raw))
	for _, r := range raw {
		var id string
		if err := json.Unmarshal(r, &id); err == nil {
			out = append(out, id)
			continue
		}
		var obj struct {
			ID string `json:"_id"`
		}
		if err := json.Unmarshal(r, &obj); err == nil && obj.ID != "" {
			out = append(out, obj.ID)
		}
	}
	*l = out
	return nil
}
