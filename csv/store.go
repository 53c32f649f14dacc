// Package csv implements jptransit.StationStore as a delimited UTF-8 text
// file with a header row. The file is an append-only log: checkpointed
// batches are appended during a crawl and never rewritten.
package csv

import (
	"context"
	enccsv "encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	jptransit "github.com/anhlt/jp-transit-search"
)

// columns is the canonical column order. Loading tolerates files that lack
// optional columns; writing always emits all of them.
var columns = []string{
	"name",
	"name_hiragana",
	"name_katakana",
	"name_romaji",
	"prefecture",
	"prefecture_id",
	"station_id",
	"railway_company",
	"line_name",
	"aliases",
	"all_lines",
}

// multiValueSep joins multi-valued fields within one cell.
const multiValueSep = "|"

// Ensure Store implements jptransit.StationStore at compile time.
var _ jptransit.StationStore = (*Store)(nil)

// Store persists stations in a delimited text file.
type Store struct {
	path string
}

// NewStore creates a Store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Append adds records to the store, creating the file (and its header row)
// if needed.
func (s *Store) Append(ctx context.Context, stations []*jptransit.Station) error {
	if len(stations) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := enccsv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(columns); err != nil {
			return err
		}
	}

	for _, st := range stations {
		if err := st.Validate(); err != nil {
			return err
		}
		if err := w.Write(record(st)); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// LoadAll reads every record in the store. A missing file yields an empty
// slice; an unreadable file shape is treated as empty rather than fatal.
func (s *Store) LoadAll(ctx context.Context) ([]*jptransit.Station, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*jptransit.Station{}, nil
		}
		return nil, err
	}
	defer f.Close()

	r := enccsv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate files written before columns were added

	header, err := r.Read()
	if err != nil {
		// Empty or unreadable store: start from nothing.
		return []*jptransit.Station{}, nil
	}

	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.TrimSpace(col)] = i
	}

	var stations []*jptransit.Station
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A torn final row can be left by a killed crawl; keep what
			// parsed so far.
			break
		}

		field := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		st := &jptransit.Station{
			Name:           field("name"),
			NameHiragana:   field("name_hiragana"),
			NameKatakana:   field("name_katakana"),
			NameRomaji:     field("name_romaji"),
			Prefecture:     field("prefecture"),
			PrefectureID:   field("prefecture_id"),
			StationID:      field("station_id"),
			RailwayCompany: field("railway_company"),
			LineName:       field("line_name"),
			Aliases:        splitMulti(field("aliases")),
			AllLines:       splitMulti(field("all_lines")),
		}
		if st.Name == "" {
			continue
		}
		if st.PrefectureID == "" && st.Prefecture != "" {
			st.PrefectureID = jptransit.PrefectureCode(st.Prefecture)
		}
		stations = append(stations, st)
	}

	if stations == nil {
		stations = []*jptransit.Station{}
	}
	return stations, nil
}

// Truncate resets the store to empty.
func (s *Store) Truncate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// record flattens a station into one row. Absent values are empty strings,
// never the literal "null".
func record(st *jptransit.Station) []string {
	return []string{
		st.Name,
		st.NameHiragana,
		st.NameKatakana,
		st.NameRomaji,
		st.Prefecture,
		st.PrefectureID,
		st.StationID,
		st.RailwayCompany,
		st.LineName,
		joinMulti(st.Aliases),
		joinMulti(st.AllLines),
	}
}

// joinMulti joins a multi-valued field; an empty list is an empty cell.
func joinMulti(values []string) string {
	return strings.Join(values, multiValueSep)
}

// splitMulti is the inverse of joinMulti: an empty cell is an empty list,
// not a list holding one empty string.
func splitMulti(cell string) []string {
	if cell == "" {
		return []string{}
	}
	return strings.Split(cell, multiValueSep)
}
