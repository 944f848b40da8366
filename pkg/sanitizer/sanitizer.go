package sanitizer

import "strings"

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var emailPipeline = Pipeline{
	strings.TrimSpace,
	strings.ToLower,
}

// NormalizeEmail trims and lower-cases an address so that lookups and the
// unique index agree on one spelling.
func NormalizeEmail(email string) string {
	return emailPipeline.Apply(email)
}
