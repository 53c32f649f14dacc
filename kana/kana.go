// Package kana implements jptransit.Converter: it normalizes a raw station
// name and derives its hiragana, katakana and romaji variants.
//
// Kana-to-kana conversion is a fixed rune offset and romanization follows
// the Hepburn tables in romaji.go. Kanji cannot be read without a
// dictionary; a variant that would still contain kanji after conversion is
// reported as empty, and callers are expected to feed the converter the kana
// reading scraped from a station's detail page instead of the kanji display
// name when they have one.
package kana

import (
	"regexp"
	"strings"
	"sync"

	jptransit "github.com/anhlt/jp-transit-search"
	"golang.org/x/text/unicode/norm"
)

// Normalization patterns: a trailing station-suffix glyph, particle glyphs
// that interfere with matching, and separator/whitespace runs.
var (
	stationSuffixRe = regexp.MustCompile(`[駅站]$`)
	particleRe      = regexp.MustCompile(`[のノ]`)
	separatorRe     = regexp.MustCompile(`[\s\-ー−・]`)
)

// Ensure Converter implements jptransit.Converter at compile time.
var _ jptransit.Converter = (*Converter)(nil)

// Converter derives script variants of station names. It is stateless and
// safe for concurrent use.
type Converter struct{}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	return &Converter{}
}

var (
	defaultConverter     *Converter
	defaultConverterOnce sync.Once
)

// Default returns a shared Converter instance, initializing it exactly once
// under concurrent first use.
func Default() *Converter {
	defaultConverterOnce.Do(func() {
		defaultConverter = NewConverter()
	})
	return defaultConverter
}

// Normalize prepares a name for variant derivation and matching: NFKC fold,
// drop a trailing 駅/站, drop の/ノ, strip separators and whitespace.
func (c *Converter) Normalize(text string) string {
	text = norm.NFKC.String(text)
	text = stationSuffixRe.ReplaceAllString(text, "")
	text = particleRe.ReplaceAllString(text, "")
	text = separatorRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Variants returns the script variants of name. A variant that cannot be
// fully derived (the normalized name still contains kanji) is empty.
func (c *Converter) Variants(name string) jptransit.TextVariants {
	normalized := c.Normalize(name)
	if normalized == "" {
		return jptransit.TextVariants{}
	}

	hira := katakanaToHiragana(normalized)
	if !isHiragana(hira) {
		return jptransit.TextVariants{}
	}

	return jptransit.TextVariants{
		Hiragana: hira,
		Katakana: hiraganaToKatakana(hira),
		Romaji:   hiraganaToRomaji(hira),
	}
}

// katakanaToHiragana maps katakana runes onto hiragana. Other runes pass
// through unchanged.
func katakanaToHiragana(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 'ァ' && r <= 'ヶ' {
			r -= 0x60
		}
		b.WriteRune(r)
	}
	return b.String()
}

// hiraganaToKatakana is the inverse mapping.
func hiraganaToKatakana(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 'ぁ' && r <= 'ゖ' {
			r += 0x60
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isHiragana reports whether every rune of s is hiragana.
func isHiragana(s string) bool {
	for _, r := range s {
		if r < 'ぁ' || r > 'ゖ' {
			return false
		}
	}
	return s != ""
}
