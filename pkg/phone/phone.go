// Package phone validates customer phone numbers against a provider's home
// region.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Number is the outcome of parsing a phone number.
type Number struct {
	Valid    bool
	Possible bool
	// National is the national significant number, without country code.
	National string
	// E164 is the number in +CCNNN form. Empty when parsing failed.
	E164 string
}

// Parser parses a phone number for a default region.
type Parser interface {
	Parse(number, region string) Number
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(number, region string) Number

// Parse calls f.
func (f ParserFunc) Parse(number, region string) Number {
	return f(number, region)
}

// LibPhoneNumber is the Parser backed by libphonenumber metadata.
type LibPhoneNumber struct{}

// NewParser returns the default Parser.
func NewParser() Parser {
	return LibPhoneNumber{}
}

// Parse never fails: unparseable input yields a Number that is neither valid
// nor possible.
func (LibPhoneNumber) Parse(number, region string) Number {
	num, err := phonenumbers.Parse(strings.TrimSpace(number), strings.ToUpper(region))
	if err != nil {
		return Number{}
	}
	return Number{
		Valid:    phonenumbers.IsValidNumber(num),
		Possible: phonenumbers.IsPossibleNumber(num),
		National: phonenumbers.GetNationalSignificantNumber(num),
		E164:     phonenumbers.Format(num, phonenumbers.E164),
	}
}
