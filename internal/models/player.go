package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Columns is the allow-list of leaguedashplayerstats columns kept for storage,
// in the order they are written.
var Columns = []string{
	"PLAYER_ID",
	"PLAYER_NAME",
	"TEAM_ID",
	"TEAM_ABBREVIATION",
	"AGE",
	"GP",
	"W",
	"L",
	"W_PCT",
	"MIN",
	"FGM",
	"FGA",
	"FG_PCT",
	"FG3M",
	"FG3A",
	"FG3_PCT",
	"FTM",
	"FTA",
	"FT_PCT",
	"OREB",
	"DREB",
	"REB",
	"AST",
	"TOV",
	"STL",
	"BLK",
	"PF",
	"PTS",
	"PLUS_MINUS",
	"NBA_FANTASY_PTS",
}

// ConflictKey is the players column used to resolve upsert conflicts
const ConflictKey = "player_id"

// PlayersTable is the storage table name
const PlayersTable = "players"

// PlayerSeasonRecord is one player's season aggregate as stored in the players table
type PlayerSeasonRecord struct {
	PlayerID         int64    `json:"player_id" db:"player_id"`
	PlayerName       *string  `json:"player_name" db:"player_name"`
	TeamID           *int64   `json:"team_id" db:"team_id"`
	TeamAbbreviation *string  `json:"team_abbreviation" db:"team_abbreviation"`
	Age              *float64 `json:"age" db:"age"`

	// Record
	GP   *int64   `json:"gp" db:"gp"`
	W    *int64   `json:"w" db:"w"`
	L    *int64   `json:"l" db:"l"`
	WPct *float64 `json:"w_pct" db:"w_pct"`
	Min  *float64 `json:"min" db:"min"`

	// Shooting
	FGM    *float64 `json:"fgm" db:"fgm"`
	FGA    *float64 `json:"fga" db:"fga"`
	FGPct  *float64 `json:"fg_pct" db:"fg_pct"`
	FG3M   *float64 `json:"fg3m" db:"fg3m"`
	FG3A   *float64 `json:"fg3a" db:"fg3a"`
	FG3Pct *float64 `json:"fg3_pct" db:"fg3_pct"`
	FTM    *float64 `json:"ftm" db:"ftm"`
	FTA    *float64 `json:"fta" db:"fta"`
	FTPct  *float64 `json:"ft_pct" db:"ft_pct"`

	// Rebounds
	OREB *float64 `json:"oreb" db:"oreb"`
	DREB *float64 `json:"dreb" db:"dreb"`
	REB  *float64 `json:"reb" db:"reb"`

	AST       *float64 `json:"ast" db:"ast"`
	TOV       *float64 `json:"tov" db:"tov"`
	STL       *float64 `json:"stl" db:"stl"`
	BLK       *float64 `json:"blk" db:"blk"`
	PF        *float64 `json:"pf" db:"pf"`
	PTS       *float64 `json:"pts" db:"pts"`
	PlusMinus *float64 `json:"plus_minus" db:"plus_minus"`

	NBAFantasyPts *float64 `json:"nba_fantasy_pts" db:"nba_fantasy_pts"`
}

// FromRecord converts a normalized record to a PlayerSeasonRecord.
// Fields absent from the record stay nil so that an upsert writes them as NULL.
func FromRecord(rec Record) (*PlayerSeasonRecord, error) {
	id, err := int64Field(rec, "player_id")
	if err != nil {
		return nil, err
	}
	if id == nil {
		return nil, &FieldError{Field: "player_id", Value: nil}
	}

	p := &PlayerSeasonRecord{PlayerID: *id}

	if p.PlayerName, err = stringField(rec, "player_name"); err != nil {
		return nil, err
	}
	if p.TeamID, err = int64Field(rec, "team_id"); err != nil {
		return nil, err
	}
	if p.TeamAbbreviation, err = stringField(rec, "team_abbreviation"); err != nil {
		return nil, err
	}
	if p.GP, err = int64Field(rec, "gp"); err != nil {
		return nil, err
	}
	if p.W, err = int64Field(rec, "w"); err != nil {
		return nil, err
	}
	if p.L, err = int64Field(rec, "l"); err != nil {
		return nil, err
	}

	floats := []struct {
		name string
		dst  **float64
	}{
		{"age", &p.Age},
		{"w_pct", &p.WPct},
		{"min", &p.Min},
		{"fgm", &p.FGM},
		{"fga", &p.FGA},
		{"fg_pct", &p.FGPct},
		{"fg3m", &p.FG3M},
		{"fg3a", &p.FG3A},
		{"fg3_pct", &p.FG3Pct},
		{"ftm", &p.FTM},
		{"fta", &p.FTA},
		{"ft_pct", &p.FTPct},
		{"oreb", &p.OREB},
		{"dreb", &p.DREB},
		{"reb", &p.REB},
		{"ast", &p.AST},
		{"tov", &p.TOV},
		{"stl", &p.STL},
		{"blk", &p.BLK},
		{"pf", &p.PF},
		{"pts", &p.PTS},
		{"plus_minus", &p.PlusMinus},
		{"nba_fantasy_pts", &p.NBAFantasyPts},
	}
	for _, f := range floats {
		v, err := float64Field(rec, f.name)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	return p, nil
}

func float64Field(rec Record, name string) (*float64, error) {
	raw, ok := rec[name]
	if !ok || raw == nil {
		return nil, nil
	}
	var f float64
	switch val := raw.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return nil, &FieldError{Field: name, Value: raw}
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, &FieldError{Field: name, Value: raw}
		}
		f = parsed
	default:
		return nil, &FieldError{Field: name, Value: raw}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, nil
	}
	return &f, nil
}

func int64Field(rec Record, name string) (*int64, error) {
	f, err := float64Field(rec, name)
	if err != nil || f == nil {
		return nil, err
	}
	if *f != math.Trunc(*f) {
		return nil, &FieldError{Field: name, Value: rec[name]}
	}
	i := int64(*f)
	return &i, nil
}

func stringField(rec Record, name string) (*string, error) {
	raw, ok := rec[name]
	if !ok || raw == nil {
		return nil, nil
	}
	switch val := raw.(type) {
	case string:
		return &val, nil
	case float64:
		s := strconv.FormatFloat(val, 'f', -1, 64)
		return &s, nil
	default:
		return nil, &FieldError{Field: name, Value: raw}
	}
}

// StorageColumns returns Columns in lowercase, the names used by the players table
func StorageColumns() []string {
	cols := make([]string, len(Columns))
	for i, c := range Columns {
		cols[i] = strings.ToLower(c)
	}
	return cols
}
