// Package model defines the record types shared by the grid, the filter
// controllers, and the caching layer.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Well-known column IDs. Columns beyond these live in Record.Extra.
const (
	ColPlayer   = "player"
	ColTeam     = "team"
	ColOpponent = "opponent"
	ColMarket   = "market"
	ColLine     = "line"
	ColSplit    = "split"
	ColGameTime = "game_time"
)

// Transient holds per-render state that must never be persisted or hashed
// into a row's identity. It is a side channel, not a record field.
type Transient struct {
	Expanded bool
}

// Record is one data row. Known fields are typed; book odds, hit rates and
// other variable columns go in Extra. The grid owns Record lifetime once a
// record set is loaded; controllers hold only identity-keyed references.
type Record struct {
	Player   string            `json:"player,omitempty"`
	Team     string            `json:"team,omitempty"`
	Opponent string            `json:"opponent,omitempty"`
	Market   string            `json:"market,omitempty"`
	Line     string            `json:"line,omitempty"`
	Split    string            `json:"split,omitempty"`
	GameTime string            `json:"game_time,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`

	Transient Transient `json:"-"`
}

// Field returns the stringified value of the named column, or "" when the
// record does not carry it.
func (r *Record) Field(column string) string {
	switch column {
	case ColPlayer:
		return r.Player
	case ColTeam:
		return r.Team
	case ColOpponent:
		return r.Opponent
	case ColMarket:
		return r.Market
	case ColLine:
		return r.Line
	case ColSplit:
		return r.Split
	case ColGameTime:
		return r.GameTime
	}
	return r.Extra[column]
}

// SetField stores a value under the named column, routing known columns to
// their typed fields.
func (r *Record) SetField(column, value string) {
	switch column {
	case ColPlayer:
		r.Player = value
	case ColTeam:
		r.Team = value
	case ColOpponent:
		r.Opponent = value
	case ColMarket:
		r.Market = value
	case ColLine:
		r.Line = value
	case ColSplit:
		r.Split = value
	case ColGameTime:
		r.GameTime = value
	default:
		if r.Extra == nil {
			r.Extra = make(map[string]string)
		}
		r.Extra[column] = value
	}
}

// Columns returns every column the record carries a non-empty value for.
func (r *Record) Columns() []string {
	cols := make([]string, 0, 7+len(r.Extra))
	for _, c := range []string{ColPlayer, ColTeam, ColOpponent, ColMarket, ColLine, ColSplit, ColGameTime} {
		if r.Field(c) != "" {
			cols = append(cols, c)
		}
	}
	for c := range r.Extra {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// identityColumns is the fixed, ordered subset of fields a row's identity is
// derived from. Stable across re-fetch and re-render of the same logical row.
var identityColumns = []string{ColPlayer, ColTeam, ColMarket, ColLine, ColSplit}

// Identity returns the stable key identifying this logical row across grid
// redraws. When none of the primary identity fields are present, it falls
// back to a digest over the full field enumeration so that two structurally
// different records never collapse onto the empty key.
func (r *Record) Identity() string {
	parts := make([]string, len(identityColumns))
	empty := true
	for i, col := range identityColumns {
		parts[i] = r.Field(col)
		if parts[i] != "" {
			empty = false
		}
	}
	if !empty {
		return strings.Join(parts, "|")
	}
	return "f:" + r.fieldDigest()
}

// fieldDigest hashes the sorted column/value enumeration.
func (r *Record) fieldDigest() string {
	h := sha256.New()
	for _, col := range r.Columns() {
		h.Write([]byte(col))
		h.Write([]byte{0})
		h.Write([]byte(r.Field(col)))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Clone returns a deep copy with transient state zeroed.
func (r *Record) Clone() Record {
	out := *r
	out.Transient = Transient{}
	if r.Extra != nil {
		out.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}
