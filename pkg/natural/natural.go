// Package natural implements human-friendly ("natural") string ordering,
// where embedded runs of digits compare by numeric value rather than
// byte value, so "2" sorts before "10".
package natural

import (
	"math/big"
	"path/filepath"
	"strings"
)

// ImageExtensions are the supported page-image extensions, lowercase and
// without the leading dot.
var ImageExtensions = []string{"jpg", "jpeg", "png", "webp", "avif", "gif", "bmp"}

// maxUint128 bounds the numeric value of a digit run the same way the
// reference implementation's u128 parse does: a run whose value would
// exceed this is treated as zero rather than rejected outright, so two
// very long (but differently-sized) digit runs still fall through to the
// digit-length tiebreak below instead of comparing raw magnitudes.
var maxUint128 = func() *big.Int {
	v := new(big.Int).Lsh(big.NewInt(1), 128)
	return v.Sub(v, big.NewInt(1))
}()

// TokenKind distinguishes the two token shapes produced by Tokenize.
type TokenKind int

const (
	// TokenText is a maximal run of non-digit characters.
	TokenText TokenKind = iota
	// TokenNumber is a maximal run of ASCII digits.
	TokenNumber
)

// Token is one element of a tokenized string: either a text run or a
// digit run together with its parsed numeric value.
type Token struct {
	Kind  TokenKind
	Text  string
	Value *big.Int
}

// Tokenize splits input into an alternating sequence of text and number
// runs, in order of appearance.
func Tokenize(input string) []Token {
	var tokens []Token
	runes := []rune(input)
	n := len(runes)
	start := 0
	i := 0
	for i < n {
		if isASCIIDigit(runes[i]) {
			if start < i {
				tokens = append(tokens, Token{Kind: TokenText, Text: string(runes[start:i])})
			}
			j := i + 1
			for j < n && isASCIIDigit(runes[j]) {
				j++
			}
			digits := string(runes[i:j])
			value, ok := new(big.Int).SetString(digits, 10)
			if !ok || value.Cmp(maxUint128) > 0 {
				value = big.NewInt(0)
			}
			tokens = append(tokens, Token{Kind: TokenNumber, Text: digits, Value: value})
			start = j
			i = j
			continue
		}
		i++
	}
	if start < n {
		tokens = append(tokens, Token{Kind: TokenText, Text: string(runes[start:n])})
	}
	return tokens
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Compare is a total order over strings: reflexive, antisymmetric, and
// transitive. It returns a negative number if a < b, zero if equal, and a
// positive number if a > b.
func Compare(a, b string) int {
	aTokens := Tokenize(a)
	bTokens := Tokenize(b)

	n := len(aTokens)
	if len(bTokens) < n {
		n = len(bTokens)
	}

	for i := 0; i < n; i++ {
		at := aTokens[i]
		bt := bTokens[i]

		switch {
		case at.Kind == TokenNumber && bt.Kind == TokenNumber:
			if c := at.Value.Cmp(bt.Value); c != 0 {
				return c
			}
			if c := len(at.Text) - len(bt.Text); c != 0 {
				return c
			}
		case at.Kind == TokenText && bt.Kind == TokenText:
			if c := strings.Compare(at.Text, bt.Text); c != 0 {
				return c
			}
		case at.Kind == TokenNumber && bt.Kind == TokenText:
			return -1
		default: // Text vs Number
			return 1
		}
	}

	if c := len(aTokens) - len(bTokens); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// Less reports whether a sorts strictly before b under Compare.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// ComparePaths is the path-comparator used for folder/archive listings: it
// lowercases both inputs before applying Compare, matching the ordering
// consumers expect from case-insensitive filesystem listings.
func ComparePaths(a, b string) int {
	return Compare(strings.ToLower(a), strings.ToLower(b))
}

// IsHidden reports whether the final path component begins with a dot.
func IsHidden(path string) bool {
	name := filepath.Base(path)
	return strings.HasPrefix(name, ".")
}

// IsSupportedImage reports whether path's extension (case-insensitive, no
// dot) is one of ImageExtensions.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return false
	}
	for _, e := range ImageExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
