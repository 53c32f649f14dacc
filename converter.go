package jptransit

// TextVariants holds the script variants of a station name.
type TextVariants struct {
	Hiragana string
	Katakana string
	Romaji   string
}

// Converter derives script variants from a raw name. Implementations
// normalize first (drop a trailing station suffix glyph, drop particle
// glyphs, strip separators and whitespace) and must be safe for concurrent
// use.
type Converter interface {
	Variants(name string) TextVariants
}
