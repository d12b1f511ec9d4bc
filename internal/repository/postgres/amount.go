package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cassiomorais/bingwa/internal/domain/transaction"
)

// amountColumns splits an amount into the numeric and text columns. At most
// one of them is set.
func amountColumns(a transaction.Amount) (value, text *string) {
	switch a.Kind() {
	case transaction.AmountDecimal:
		s := formatNumeric(a.Cents())
		return &s, nil
	case transaction.AmountText:
		s := a.String()
		return nil, &s
	default:
		return nil, nil
	}
}

func amountFromColumns(value, text *string) (transaction.Amount, error) {
	if value != nil {
		cents, err := parseNumeric(*value)
		if err != nil {
			return transaction.Amount{}, fmt.Errorf("decode amount_value: %w", err)
		}
		return transaction.NewCentsAmount(cents), nil
	}
	if text != nil {
		return transaction.NewTextAmount(*text), nil
	}
	return transaction.Amount{}, nil
}

// formatNumeric renders cents as a NUMERIC(14,2) literal.
func formatNumeric(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// parseNumeric reads a NUMERIC(14,2) value as text without going through
// float64. Postgres never returns more than two fraction digits for the
// column, so extra digits are rejected.
func parseNumeric(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty numeric")
	}

	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(digits, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("numeric %q has more than two fraction digits", s)
	}
	frac += strings.Repeat("0", 2-len(frac))

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse numeric %q: %w", s, err)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("parse numeric %q: invalid fraction", s)
	}

	cents := w*100 + f
	if neg {
		cents = -cents
	}
	return cents, nil
}
