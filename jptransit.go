// Package jptransit provides a searchable directory of Japanese railway
// stations. It crawls a public transit site's prefecture → line → station
// hierarchy into a flat station store, then answers exact, substring and
// edit-distance name queries across kanji, hiragana, katakana and romaji.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, csv/, sqlite/).
package jptransit
