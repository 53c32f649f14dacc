package jptransit

import "context"

// Station represents a single railway station discovered during a crawl.
// A Station is a value: it is built once, deduplicated, and never mutated.
type Station struct {
	// Name is the canonical station name as displayed on the source site,
	// usually kanji.
	Name string `json:"name"`

	// Script variants of Name, derived by a Converter. Empty when the
	// variant could not be derived.
	NameHiragana string `json:"nameHiragana,omitempty"`
	NameKatakana string `json:"nameKatakana,omitempty"`
	NameRomaji   string `json:"nameRomaji,omitempty"`

	// Prefecture is the prefecture name (e.g. 東京都) and PrefectureID its
	// fixed two-digit JIS code ("01".."47").
	Prefecture   string `json:"prefecture,omitempty"`
	PrefectureID string `json:"prefectureId,omitempty"`

	// StationID is the source site's numeric station id when one was
	// embedded in the station URL.
	StationID string `json:"stationId,omitempty"`

	RailwayCompany string `json:"railwayCompany,omitempty"`

	// LineName is the line under which the station was discovered.
	// AllLines holds every line found on the station's own detail page and
	// may exceed LineName.
	LineName string   `json:"lineName,omitempty"`
	AllLines []string `json:"allLines"`

	// Aliases holds free-form alternative names, e.g. the disambiguated
	// 青山(岩手県) form. Never nil.
	Aliases []string `json:"aliases"`
}

// IdentityKey returns the value used to decide that two discovered records
// are the same station: the source id when present, otherwise the
// name+prefecture pair.
func (s *Station) IdentityKey() string {
	if s.StationID != "" {
		return "id:" + s.StationID
	}
	return s.Name + "|" + s.Prefecture
}

// Validate returns an error if the station contains invalid fields.
func (s *Station) Validate() error {
	if s.Name == "" {
		return Errorf(EINVALID, "station name required")
	}
	return nil
}

// StationDetail is the best-effort bag of fields extracted from a single
// station detail page. Every field is optional; absent values are zero.
type StationDetail struct {
	StationID    string
	Reading      string // kana reading of the station name, when present
	CompanyName  string
	LineName     string
	PrefectureID string
	Aliases      []string
	AllLines     []string
}

// StationStore persists the flat station directory. Append is an append-only
// operation: previously written records are never rewritten.
type StationStore interface {
	// Append adds records to the store, creating it if needed.
	Append(ctx context.Context, stations []*Station) error

	// LoadAll reads every record in the store. A missing store yields an
	// empty slice, not an error.
	LoadAll(ctx context.Context) ([]*Station, error)

	// Truncate resets the store to empty.
	Truncate(ctx context.Context) error
}
