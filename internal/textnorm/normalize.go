// Package textnorm folds Vietnamese text into the two token spaces used for
// matching: a diacritics-stripped ASCII space and a diacritics-preserving VI space.
package textnorm

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Set is an unordered collection of tokens.
type Set map[string]struct{}

var (
	stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	// đ has no canonical decomposition, so it survives mark stripping.
	dStroke = strings.NewReplacer("đ", "d", "Đ", "d")

	asciiWordRe     = regexp.MustCompile(`[a-z0-9]+`)
	asciiDistrictRe = regexp.MustCompile(`(?:quan|q)\.?\s*(\d+)`)

	viWordRe     = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)
	viDistrictRe = regexp.MustCompile(`quận\s*(\d+)`)
)

// Normalize lowercases text and removes accents.
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	lowered := strings.ToLower(text)
	folded, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		folded = lowered
	}
	return dStroke.Replace(folded)
}

// HasDiacritics reports whether text contains any non-ASCII code point.
func HasDiacritics(text string) bool {
	for _, r := range text {
		if r > unicode.MaxASCII {
			return true
		}
	}
	return false
}

// TokenizeASCII returns the ASCII token set of text, plus synthetic quan<N>
// tokens for district references such as "quan 1" or "q10".
func TokenizeASCII(text string) Set {
	normalized := Normalize(text)
	tokens := make(Set)
	for _, tok := range asciiWordRe.FindAllString(normalized, -1) {
		if keepToken(tok) {
			tokens[tok] = struct{}{}
		}
	}
	for _, n := range districts(asciiDistrictRe, normalized, true) {
		tokens["quan"+n] = struct{}{}
	}
	return tokens
}

// TokenizeVI returns the diacritics-preserving token set of text, plus
// synthetic quận<N> tokens.
func TokenizeVI(text string) Set {
	if text == "" {
		return Set{}
	}
	lowered := norm.NFC.String(strings.ToLower(text))
	tokens := make(Set)
	for _, tok := range viWordRe.FindAllString(lowered, -1) {
		if strings.Contains(tok, "_") || !keepToken(tok) {
			continue
		}
		tokens[tok] = struct{}{}
	}
	for _, n := range districts(viDistrictRe, lowered, false) {
		tokens["quận"+n] = struct{}{}
	}
	return tokens
}

func keepToken(tok string) bool {
	if len([]rune(tok)) < 2 {
		return false
	}
	for _, r := range tok {
		if !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// districts returns the district numbers re finds in text. Runs of more
// than two digits are not districts. With wordStart set, a match glued to
// a preceding letter ("banq1") is ignored.
func districts(re *regexp.Regexp, text string, wordStart bool) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		digits := text[m[2]:m[3]]
		if len(digits) > 2 {
			continue
		}
		if wordStart && m[0] > 0 && isASCIILetter(text[m[0]-1]) {
			continue
		}
		out = append(out, districtNumber(digits))
	}
	return out
}

func isASCIILetter(b byte) bool {
	return b >= 'a' && b <= 'z'
}

// districtNumber drops leading zeros so "q01" and "quan 1" agree.
func districtNumber(digits string) string {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return digits
	}
	return strconv.Itoa(n)
}

// Union returns a new set holding the tokens of every input set.
func Union(sets ...Set) Set {
	out := make(Set)
	for _, s := range sets {
		for tok := range s {
			out[tok] = struct{}{}
		}
	}
	return out
}

// Without returns the tokens of s that are not in drop.
func (s Set) Without(drop Set) Set {
	out := make(Set, len(s))
	for tok := range s {
		if _, ok := drop[tok]; !ok {
			out[tok] = struct{}{}
		}
	}
	return out
}

// Intersect returns the tokens present in both s and other.
func (s Set) Intersect(other Set) Set {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(Set)
	for tok := range small {
		if _, ok := large[tok]; ok {
			out[tok] = struct{}{}
		}
	}
	return out
}

// Overlap counts the tokens shared by s and other without allocating.
func (s Set) Overlap(other Set) int {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	n := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			n++
		}
	}
	return n
}

// Intersects reports whether s and other share at least one token.
func (s Set) Intersects(other Set) bool {
	return s.Overlap(other) > 0
}

// Has reports whether tok is in s.
func (s Set) Has(tok string) bool {
	_, ok := s[tok]
	return ok
}

// Sorted returns the tokens in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for tok := range s {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}
