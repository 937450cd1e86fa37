// Package templates loads reference templates from stored JSON files and
// keeps them cached for matching.
package templates

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/ayusman/signcoach/internal/gesture"
)

// ErrUnknownSymbol is returned for symbols missing from the vocabulary.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Vocabulary maps every practicable symbol to its sign type.
type Vocabulary map[string]gesture.SignType

// DefaultVocabulary returns the LENSEGUA fingerspelling alphabet.
func DefaultVocabulary() Vocabulary {
	v := Vocabulary{}
	for _, s := range []string{
		"A", "B", "C", "E", "G", "H", "I", "K", "L", "LL", "M",
		"N", "O", "Q", "R", "T", "U", "V", "W", "X", "Y", "Z",
	} {
		v[s] = gesture.TypeStatic
	}
	for _, s := range []string{"D", "F", "J", "P", "RR", "S"} {
		v[s] = gesture.TypeDynamic
	}
	return v
}

// Type returns the sign type of symbol.
func (v Vocabulary) Type(symbol string) (gesture.SignType, error) {
	t, ok := v[symbol]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
	}
	return t, nil
}

// Symbols returns the vocabulary's symbols in sorted order.
func (v Vocabulary) Symbols() []string {
	return slices.Sorted(maps.Keys(v))
}
