package synth

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const hexPrefix = "0x"

// Value is a 0-127 number as written in a configuration document: a JSON
// integer, a hex string such as "0x1A" or a decimal string such as "26".
// The original spelling is kept so saving a profile writes it back unchanged.
type Value struct {
	n   int
	lit string
}

// IntValue returns a Value written as a plain JSON integer.
func IntValue(n int) Value {
	return Value{n: n}
}

// HexValue returns a Value written as a "0x" string.
func HexValue(n int) Value {
	return Value{n: n, lit: fmt.Sprintf("%s%02X", hexPrefix, n)}
}

// ParseValue resolves a string literal. A "0x" prefix selects base 16,
// anything else is read as base 10.
func ParseValue(s string) (Value, error) {
	var (
		n   int64
		err error
	)
	if digits, ok := strings.CutPrefix(s, hexPrefix); ok {
		n, err = strconv.ParseInt(digits, 16, 0)
	} else {
		n, err = strconv.ParseInt(s, 10, 0)
	}
	if err != nil {
		return Value{}, fmt.Errorf("%w: %q", ErrInvalidValue, s)
	}
	v := Value{n: int(n), lit: s}
	return v, v.validate()
}

// Int returns the resolved number.
func (v Value) Int() int {
	return v.n
}

func (v Value) String() string {
	if v.lit != "" {
		return v.lit
	}
	return strconv.Itoa(v.n)
}

func (v Value) validate() error {
	if v.n < 0 || v.n > 127 {
		return fmt.Errorf("%w: %s is outside 0-127", ErrInvalidValue, v)
	}
	return nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseValue(s)
		if err != nil {
			return err
		}
		*v = parsed
		return nil
	}
	var n number
	if err := n.UnmarshalJSON(data); err != nil {
		return err
	}
	*v = Value{n: int(n)}
	return v.validate()
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.lit != "" {
		return json.Marshal(v.lit)
	}
	return []byte(strconv.Itoa(v.n)), nil
}

// number is a JSON integer that may be written with a zero fraction, as in 26.0.
type number int

func (n *number) UnmarshalJSON(data []byte) error {
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("%w: %s", ErrInvalidValue, data)
	}
	*n = number(f)
	return nil
}
