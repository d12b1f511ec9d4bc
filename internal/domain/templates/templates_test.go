package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cassiomorais/bingwa/internal/domain/classifier"
	"github.com/cassiomorais/bingwa/internal/domain/transaction"
)

func TestRender_FullTransaction(t *testing.T) {
	txn := transaction.New("t1", "john mwangi", "0712345678", transaction.NewDecimalAmount(250.0), "Daily Bundle")

	out := Render("Hi {first_name}, {offer} for {amount} is active.", txn)

	assert.Equal(t, "Hi John, Daily Bundle for Ksh 250.00 is active.", out)
}

func TestRender_NameParts(t *testing.T) {
	tmpl := "[{first_name}|{second_name}|{last_name}|{name}]"

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"single", "JOHN", "[John|||John]"},
		{"two", "john MWANGI", "[John||Mwangi|John Mwangi]"},
		{"three", "john kamau mwangi", "[John|Kamau|Mwangi|John Kamau Mwangi]"},
		{"four", "a b c d", "[A|B|D|A B C D]"},
		{"extra spaces", "  john   mwangi ", "[John||Mwangi|John Mwangi]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := transaction.New("t", tt.input, "", transaction.Amount{}, "")
			assert.Equal(t, tt.expected, Render(tmpl, txn))
		})
	}
}

func TestRender_MissingFieldsLeftVerbatim(t *testing.T) {
	txn := transaction.New("t", "", "", transaction.Amount{}, "")
	tmpl := "Dear {first_name}, {offer} for {amount} to {phone}"

	assert.Equal(t, tmpl, Render(tmpl, txn))
}

func TestRender_PartialFields(t *testing.T) {
	txn := transaction.New("t", "", "0712", transaction.NewTextAmount("250"), "")

	out := Render("{first_name}:{amount}:{phone}:{offer}", txn)

	assert.Equal(t, "{first_name}:250:0712:{offer}", out)
}

func TestRender_ValuesAreNotReexpanded(t *testing.T) {
	txn := transaction.New("t", "", "", transaction.Amount{}, "{amount}")

	assert.Equal(t, "offer {amount}", Render("offer {offer}", txn))
}

func TestFormatName(t *testing.T) {
	assert.Equal(t, "John Mwangi", FormatName("jOHN mwANGI"))
	assert.Equal(t, "Émile", FormatName("éMILE"))
	assert.Equal(t, "", FormatName("   "))

	once := FormatName("mary  WANJIKU njeri")
	assert.Equal(t, once, FormatName(once))
}

func TestSelect(t *testing.T) {
	tests := []struct {
		tag  classifier.Tag
		kind Kind
		ok   bool
	}{
		{classifier.TagSuccess, KindSuccess, true},
		{classifier.TagFailure, KindFailure, true},
		{classifier.TagAlreadyProcessed, KindAlreadyProcessed, true},
		{classifier.TagUnclassified, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.tag), func(t *testing.T) {
			kind, ok := Select(tt.tag)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestSet_WithDefaults(t *testing.T) {
	s := Set{Success: "custom {offer}"}.WithDefaults()

	assert.Equal(t, "custom {offer}", s.For(KindSuccess))
	assert.Equal(t, Defaults().Failure, s.For(KindFailure))
	assert.Equal(t, Defaults().AlreadyProcessed, s.For(KindAlreadyProcessed))
	assert.Equal(t, Defaults().NoOffer, s.For(KindNoOffer))
	assert.Empty(t, s.For(Kind("unknown")))
}

func TestDefaults_RenderAlreadyProcessed(t *testing.T) {
	txn := transaction.New("t", "grace", "0722000111", transaction.Amount{}, "")

	out := Render(Defaults().AlreadyProcessed, txn)

	assert.Contains(t, out, "Hey Grace, Your number 0722000111 has already")
}

func TestSet_RenderNoOffer(t *testing.T) {
	txn := transaction.New("t", "peter", "", transaction.NewDecimalAmount(75), "")

	out := Defaults().RenderNoOffer(txn)

	assert.Contains(t, out, "Sorry Peter, the amount Ksh 75.00 sent does not match")
}
