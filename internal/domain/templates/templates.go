// Package templates renders customer SMS confirmations from configurable
// message templates.
package templates

import (
	"github.com/cassiomorais/bingwa/internal/domain/classifier"
)

// Kind names one of the configured templates.
type Kind string

const (
	KindSuccess          Kind = "success"
	KindFailure          Kind = "failure"
	KindAlreadyProcessed Kind = "already_processed"
	KindNoOffer          Kind = "no_offer"
)

// Placeholder tokens understood by Render.
const (
	TokenFirstName  = "{first_name}"
	TokenSecondName = "{second_name}"
	TokenLastName   = "{last_name}"
	TokenName       = "{name}"
	TokenAmount     = "{amount}"
	TokenPhone      = "{phone}"
	TokenOffer      = "{offer}"
)

const (
	defaultSuccess = "Thank you {first_name} for choosing and entrusting Nexora Bingwa Sokoni and purchasing {offer} for {amount}. Have a nice time."
	defaultFailure = "Dear {first_name}, there was a delay while processing your purchase of {offer} for {amount}. Please wait a little bit for it to be loaded."
	defaultNoOffer = "Sorry {first_name}, the amount {amount} sent does not match any of our offers.\nWhatsapp 0115332870 to get list of our offers."
	defaultAlready = "Hey {first_name}, Your number {phone} has already been recommended bingwa bundles today\nReply with\n1. Recommend tomorrow\n2. Recommend to this \"number\" (new)"
)

// Set is the full template configuration. The engine only reads it.
type Set struct {
	Success          string `json:"success" mapstructure:"success"`
	Failure          string `json:"failure" mapstructure:"failure"`
	AlreadyProcessed string `json:"already_processed" mapstructure:"already_processed"`
	NoOffer          string `json:"no_offer" mapstructure:"no_offer"`
}

// Defaults returns the built-in product copy.
func Defaults() Set {
	return Set{
		Success:          defaultSuccess,
		Failure:          defaultFailure,
		AlreadyProcessed: defaultAlready,
		NoOffer:          defaultNoOffer,
	}
}

// WithDefaults fills every empty template from Defaults.
func (s Set) WithDefaults() Set {
	d := Defaults()
	if s.Success == "" {
		s.Success = d.Success
	}
	if s.Failure == "" {
		s.Failure = d.Failure
	}
	if s.AlreadyProcessed == "" {
		s.AlreadyProcessed = d.AlreadyProcessed
	}
	if s.NoOffer == "" {
		s.NoOffer = d.NoOffer
	}
	return s
}

// For returns the template of the given kind, or "" for an unknown kind.
func (s Set) For(kind Kind) string {
	switch kind {
	case KindSuccess:
		return s.Success
	case KindFailure:
		return s.Failure
	case KindAlreadyProcessed:
		return s.AlreadyProcessed
	case KindNoOffer:
		return s.NoOffer
	default:
		return ""
	}
}

// Select maps a classification to the template kind that confirms it.
// Unclassified responses have no template.
func Select(tag classifier.Tag) (Kind, bool) {
	switch tag {
	case classifier.TagSuccess:
		return KindSuccess, true
	case classifier.TagFailure:
		return KindFailure, true
	case classifier.TagAlreadyProcessed:
		return KindAlreadyProcessed, true
	default:
		return "", false
	}
}
