package templates

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cassiomorais/bingwa/internal/domain/transaction"
)

// Render substitutes the transaction's fields into tmpl. Placeholders whose
// field is missing are left as-is.
func Render(tmpl string, txn transaction.Transaction) string {
	var pairs []string

	if name := FormatName(txn.Name); name != "" {
		first, second, last := splitName(name)
		pairs = append(pairs,
			TokenFirstName, first,
			TokenSecondName, second,
			TokenLastName, last,
			TokenName, name,
		)
	}
	if !txn.Amount.IsZero() {
		pairs = append(pairs, TokenAmount, txn.Amount.String())
	}
	if txn.Phone != "" {
		pairs = append(pairs, TokenPhone, txn.Phone)
	}
	if txn.Offer != "" {
		pairs = append(pairs, TokenOffer, txn.Offer)
	}

	if len(pairs) == 0 {
		return tmpl
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// FormatName upper-cases the first letter of every word and lower-cases the
// rest, collapsing runs of whitespace.
func FormatName(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

// splitName expects an already formatted, non-empty name.
func splitName(name string) (first, second, last string) {
	parts := strings.Fields(name)
	first = parts[0]
	if len(parts) > 1 {
		last = parts[len(parts)-1]
	}
	if len(parts) > 2 {
		second = parts[1]
	}
	return first, second, last
}

// RenderNoOffer renders the no-offer template of s for txn.
func (s Set) RenderNoOffer(txn transaction.Transaction) string {
	return Render(s.NoOffer, txn)
}
