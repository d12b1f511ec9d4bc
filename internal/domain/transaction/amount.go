package transaction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AmountKind tells how an extracted amount was supplied.
type AmountKind int

const (
	AmountNone AmountKind = iota
	AmountDecimal
	AmountText
)

// Amount is the monetary value extracted from a payment message. Decimal
// values are held fixed-point in cents; anything else keeps its literal form.
type Amount struct {
	kind  AmountKind
	cents int64
	text  string
}

// maxDecimal bounds decimal amounts to what NUMERIC(14,2) stores.
const maxDecimal = 1e12

// NewDecimalAmount builds a decimal amount rounded to the nearest cent.
func NewDecimalAmount(value float64) Amount {
	return Amount{kind: AmountDecimal, cents: int64(math.Round(value * 100))}
}

// NewCentsAmount builds a decimal amount from a cent count.
func NewCentsAmount(cents int64) Amount {
	return Amount{kind: AmountDecimal, cents: cents}
}

// NewTextAmount keeps the value verbatim. An empty string yields no amount.
func NewTextAmount(s string) Amount {
	if s == "" {
		return Amount{}
	}
	return Amount{kind: AmountText, text: s}
}

func (a Amount) Kind() AmountKind { return a.kind }

func (a Amount) IsZero() bool { return a.kind == AmountNone }

// Cents returns the fixed-point value for decimal amounts and 0 otherwise.
func (a Amount) Cents() int64 { return a.cents }

// String renders decimal amounts as "Ksh 250.00" and text amounts verbatim.
func (a Amount) String() string {
	switch a.kind {
	case AmountDecimal:
		return "Ksh " + centsToString(a.cents)
	case AmountText:
		return a.text
	default:
		return ""
	}
}

// MarshalJSON writes decimals as two-digit numbers and text as strings.
func (a Amount) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case AmountDecimal:
		return []byte(centsToString(a.cents)), nil
	case AmountText:
		return json.Marshal(a.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON treats number literals with a fraction or exponent as
// decimal, integer literals and strings as text.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Amount{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode amount: %w", err)
		}
		*a = NewTextAmount(s)
		return nil
	}

	literal := string(data)
	if strings.ContainsAny(literal, ".eE") {
		f, err := strconv.ParseFloat(literal, 64)
		if err != nil {
			return fmt.Errorf("decode amount %q: %w", literal, err)
		}
		if math.Abs(f) >= maxDecimal {
			return fmt.Errorf("decode amount %q: out of range", literal)
		}
		*a = NewDecimalAmount(f)
		return nil
	}

	if _, err := strconv.ParseInt(literal, 10, 64); err != nil {
		return fmt.Errorf("decode amount %q: %w", literal, err)
	}
	*a = NewTextAmount(literal)
	return nil
}

func centsToString(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	whole := cents / 100
	frac := cents % 100

	return fmt.Sprintf("%s%d.%02d", sign, whole, frac)
}
