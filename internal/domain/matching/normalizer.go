package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/linemerge/propref/internal/domain/entity"
)

// foldDiacritics maps accented characters to their nearest ASCII form
// (NFD decompose, drop combining marks, NFC recompose). The chain carries
// internal transform buffers, so it must not be shared across goroutines:
// a fresh transformer is built per call.
func foldDiacritics() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// nameSuffixes are generational tokens stripped only when they appear as a
// trailing, space-delimited token.
var nameSuffixes = map[string]struct{}{
	"jr":  {},
	"sr":  {},
	"ii":  {},
	"iii": {},
	"iv":  {},
	"v":   {},
}

// Normalizer canonicalizes raw name strings per entity kind. It is pure
// and never fails: the worst outcome is returning the input unchanged.
type Normalizer struct {
	// marketSynonyms maps source -> lowercased raw market name -> the
	// replacement applied before generic cleanup. Abbreviation styles are
	// source-specific and not algorithmically derivable.
	marketSynonyms map[string]map[string]string
}

func NewNormalizer(marketSynonyms map[string]map[string]string) *Normalizer {
	if marketSynonyms == nil {
		marketSynonyms = DefaultMarketSynonyms()
	}
	return &Normalizer{marketSynonyms: marketSynonyms}
}

// Name returns the canonical candidate string for a raw mention name.
// source only influences market normalization (synonym tables).
func (n *Normalizer) Name(kind entity.Kind, source, raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}

	if kind == entity.KindMarket {
		s = n.applyMarketSynonym(source, s)
	}

	allUpper := s == strings.ToUpper(s) && s != strings.ToLower(s)
	allLower := s == strings.ToLower(s) && s != strings.ToUpper(s)

	s = reverseCommaName(s)
	if folded, _, err := transform.String(foldDiacritics(), s); err == nil {
		s = folded
	}
	s = stripPunctuation(s)
	s = stripSuffixToken(s)
	s = collapseWhitespace(s)

	if allUpper || allLower {
		s = titleCase(s)
	}

	return s
}

func (n *Normalizer) applyMarketSynonym(source, s string) string {
	table, ok := n.marketSynonyms[strings.ToLower(strings.TrimSpace(source))]
	if !ok {
		return s
	}
	if replacement, ok := table[strings.ToLower(s)]; ok {
		return replacement
	}
	return s
}

// reverseCommaName turns "JAMES, LEBRON" into "LEBRON JAMES". Only a
// single comma is treated as a reversed name; anything else is left alone.
func reverseCommaName(s string) string {
	if strings.Count(s, ",") != 1 {
		return s
	}
	parts := strings.SplitN(s, ",", 2)
	last := strings.TrimSpace(parts[0])
	first := strings.TrimSpace(parts[1])
	if last == "" || first == "" {
		return s
	}
	return first + " " + last
}

func stripPunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '.', '\'', '’':
			// dropped
		case '-':
			b.WriteByte(' ')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stripSuffixToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return s
	}
	last := strings.ToLower(fields[len(fields)-1])
	if _, ok := nameSuffixes[last]; ok {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func titleCase(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		runes := []rune(strings.ToLower(f))
		runes[0] = unicode.ToUpper(runes[0])
		fields[i] = string(runes)
	}
	return strings.Join(fields, " ")
}
