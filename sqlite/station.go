package sqlite

import (
	"context"
	"strings"
	"time"

	jptransit "github.com/anhlt/jp-transit-search"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ jptransit.StationStore = (*StationService)(nil)

// StationService implements jptransit.StationStore using SQLite. Records
// keep their append order through a position column so loads replay the
// discovery order, matching the CSV store.
type StationService struct {
	db *DB
}

// NewStationService creates a new StationService.
func NewStationService(db *DB) *StationService {
	return &StationService{db: db}
}

// Append inserts a batch of stations. Each record is validated first and
// written with a fresh row id; existing rows are never touched.
func (s *StationService) Append(ctx context.Context, stations []*jptransit.Station) error {
	if len(stations) == 0 {
		return nil
	}
	for _, st := range stations {
		if err := st.Validate(); err != nil {
			return err
		}
	}

	var next int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), -1) + 1 FROM stations`).Scan(&next)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for i, st := range stations {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO stations (id, name, name_hiragana, name_katakana, name_romaji,
				prefecture, prefecture_id, station_id, railway_company, line_name,
				aliases, all_lines, position, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, uuid.New().String(), st.Name, st.NameHiragana, st.NameKatakana, st.NameRomaji,
			st.Prefecture, st.PrefectureID, st.StationID, st.RailwayCompany, st.LineName,
			joinMulti(st.Aliases), joinMulti(st.AllLines), next+i, now)
		if err != nil {
			return err
		}
	}
	return nil
}

// LoadAll reads every station in append order.
func (s *StationService) LoadAll(ctx context.Context) ([]*jptransit.Station, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, name_hiragana, name_katakana, name_romaji,
			prefecture, prefecture_id, station_id, railway_company, line_name,
			aliases, all_lines
		FROM stations
		ORDER BY position ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stations := []*jptransit.Station{}
	for rows.Next() {
		var st jptransit.Station
		var aliases, allLines string
		if err := rows.Scan(&st.Name, &st.NameHiragana, &st.NameKatakana, &st.NameRomaji,
			&st.Prefecture, &st.PrefectureID, &st.StationID, &st.RailwayCompany, &st.LineName,
			&aliases, &allLines); err != nil {
			return nil, err
		}
		st.Aliases = splitMulti(aliases)
		st.AllLines = splitMulti(allLines)
		if st.PrefectureID == "" {
			st.PrefectureID = jptransit.PrefectureCode(st.Prefecture)
		}
		stations = append(stations, &st)
	}
	return stations, rows.Err()
}

// Truncate removes every station.
func (s *StationService) Truncate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM stations`)
	return err
}

// joinMulti flattens a multi-valued field into its stored form.
func joinMulti(values []string) string {
	return strings.Join(values, "|")
}

// splitMulti restores a multi-valued field; empty stays empty, not [""].
func splitMulti(value string) []string {
	if value == "" {
		return []string{}
	}
	return strings.Split(value, "|")
}
