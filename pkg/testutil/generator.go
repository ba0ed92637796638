// Package testutil provides deterministic record-set generators for tests
// and benchmark fixtures.
package testutil

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/propdeck/pkg/model"
)

// Default value pools. Generation cycles through these deterministically
// under the configured seed.
var (
	defaultTeams = []string{
		"ATL", "BOS", "BKN", "CHA", "CHI", "CLE", "DAL", "DEN", "DET", "GSW",
		"HOU", "IND", "LAC", "LAL", "MEM", "MIA", "MIL", "MIN", "NOP", "NYK",
		"OKC", "ORL", "PHI", "PHX", "POR", "SAC", "SAS", "TOR", "UTA", "WAS",
	}
	defaultMarkets = []string{"points", "rebounds", "assists", "threes", "steals", "blocks"}
	defaultBooks   = []string{"draftkings", "fanduel", "betmgm", "caesars"}
	firstNames     = []string{"Jalen", "Marcus", "Ty", "Devin", "Luka", "Marc", "Andre", "Kofi", "Nikola", "Trae"}
	lastNames      = []string{"Smith", "Diaz", "Moore", "Okafor", "Petrov", "Hall", "Nakamura", "Brooks", "Vidal", "Young"}
)

// GeneratorConfig controls record generation.
type GeneratorConfig struct {
	Seed           int64    // Random seed for determinism (0 = use current time)
	Teams          []string // Team pool (default: 30 NBA-style codes)
	Markets        []string // Market pool (default: common prop markets)
	Books          []string // Book columns emitted into Extra (default: 4 books)
	PlayersPerTeam int      // Distinct players generated per team (default: 3)
}

func (c GeneratorConfig) withDefaults() GeneratorConfig {
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	if len(c.Teams) == 0 {
		c.Teams = defaultTeams
	}
	if len(c.Markets) == 0 {
		c.Markets = defaultMarkets
	}
	if len(c.Books) == 0 {
		c.Books = defaultBooks
	}
	if c.PlayersPerTeam <= 0 {
		c.PlayersPerTeam = 3
	}
	return c
}

// GenerateRecords produces n records with unique identities. Players repeat
// across markets the way a real odds board does; the same config and seed
// always yield the same records.
func GenerateRecords(n int, cfg GeneratorConfig) []model.Record {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewSource(cfg.Seed))

	records := make([]model.Record, 0, n)
	for i := 0; i < n; i++ {
		teamIdx := (i / cfg.PlayersPerTeam) % len(cfg.Teams)
		team := cfg.Teams[teamIdx]
		opponent := cfg.Teams[(teamIdx+1+rng.Intn(len(cfg.Teams)-1))%len(cfg.Teams)]
		player := fmt.Sprintf("%s %s",
			firstNames[i%len(firstNames)],
			lastNames[(i/len(firstNames))%len(lastNames)])
		market := cfg.Markets[i%len(cfg.Markets)]
		line := fmt.Sprintf("%d.5", 4+i%50+i/1000)

		rec := model.Record{
			Player:   player,
			Team:     team,
			Opponent: opponent,
			Market:   market,
			Line:     line,
			// The split carries the running index so identities stay unique
			// even when player, market and line collide across the pools.
			Split:    fmt.Sprintf("L%d-%d", 5+rng.Intn(10), i),
			GameTime: fmt.Sprintf("19:%02d", rng.Intn(60)),
			Extra:    make(map[string]string, len(cfg.Books)),
		}
		for _, book := range cfg.Books {
			price := 100 + rng.Intn(150)
			if rng.Intn(2) == 0 {
				rec.Extra[book] = fmt.Sprintf("-%d", price)
			} else {
				rec.Extra[book] = fmt.Sprintf("+%d", price)
			}
		}
		records = append(records, rec)
	}
	return records
}

// WriteFixture writes records as the JSON array format the fixture source
// reads, creating parent directories as needed. The feed format is flat:
// book columns sit beside the known fields, not nested under extra.
func WriteFixture(path string, records []model.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating fixture dir: %w", err)
	}
	flat := make([]map[string]string, 0, len(records))
	for i := range records {
		obj := make(map[string]string)
		for _, col := range records[i].Columns() {
			obj[col] = records[i].Field(col)
		}
		flat = append(flat, obj)
	}
	payload, err := json.MarshalIndent(flat, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding fixture: %w", err)
	}
	return os.WriteFile(path, payload, 0o644)
}
