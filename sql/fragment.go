package sql

import (
	"fmt"
	"regexp"

	"github.com/nickyhof/tike/core"
)

// identifierPattern restricts table and column names to plain SQL
// identifiers. Names are spliced into statement text, never bound.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var (
	typeTokens      = tokenSet(Identifier, Int, Comma, ParenOpen, ParenClose)
	defaultTokens   = tokenSet(Identifier, String, Int, Float, Minus, Comma, ParenOpen, ParenClose, Null, True, False)
	referenceTokens = tokenSet(Identifier, Comma, ParenOpen, ParenClose, On, Delete, Update, Set, Null, Cascade, Restrict, No, Action)
)

func tokenSet(types ...TokenType) map[TokenType]bool {
	set := make(map[TokenType]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

// ValidateIdentifier checks that name can be used as a table or column name.
func ValidateIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("%w: %q is not a valid identifier", core.ErrInvalidInput, name)
	}
	return nil
}

// validateFragment lexes a raw SQL fragment and rejects it unless every
// token is in allowed and parentheses balance.
func validateFragment(what, fragment string, allowed map[TokenType]bool) error {
	tokens := tokenize(fragment)
	if len(tokens) == 1 {
		return fmt.Errorf("%w: empty %s", core.ErrInvalidInput, what)
	}

	depth := 0
	for _, token := range tokens[:len(tokens)-1] {
		if !allowed[token.Type] {
			return fmt.Errorf("%w: %s %q contains %s", core.ErrInvalidInput, what, fragment, token)
		}
		switch token.Type {
		case ParenOpen:
			depth++
		case ParenClose:
			depth--
			if depth < 0 {
				return fmt.Errorf("%w: %s %q has unbalanced parentheses", core.ErrInvalidInput, what, fragment)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("%w: %s %q has unbalanced parentheses", core.ErrInvalidInput, what, fragment)
	}
	return nil
}
