//go:build property
// +build property

// Property-based tests for token derivation determinism and practical
// injectivity across canonical forms.
package identity

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestTokenDeterminismProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("same raw identifier always yields the same token", prop.ForAll(
		func(raw string) bool {
			return Token(raw) == Token(raw)
		},
		gen.NumString(),
	))

	properties.TestingRun(t)
}

func TestTokenCanonicalInjectivityProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("distinct canonical forms yield distinct tokens", prop.ForAll(
		func(a, b string) bool {
			if Canonicalize(a) == Canonicalize(b) {
				return Token(a) == Token(b)
			}
			return Token(a) != Token(b)
		},
		gen.NumString(),
		gen.NumString(),
	))

	properties.TestingRun(t)
}
