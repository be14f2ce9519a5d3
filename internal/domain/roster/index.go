package roster

import (
	"strings"

	"github.com/riskibarqy/playerlink/internal/domain/playername"
)

const statusOut = "out"

// GameIndex is the per-game lookup of authoritative roster entries. It is built once per
// game and read concurrently afterwards.
type GameIndex struct {
	eventID string
	teams   [2]Team
	entries []Entry
	byName  map[string][]int
	byExtID map[string]int
}

// NewGameIndex indexes both team rosters plus inactive players listed as out.
func NewGameIndex(box BoxScore) (*GameIndex, error) {
	if err := box.Validate(); err != nil {
		return nil, err
	}

	idx := &GameIndex{
		eventID: box.EventID,
		teams:   [2]Team{box.Teams[0].Team, box.Teams[1].Team},
		byName:  make(map[string][]int),
		byExtID: make(map[string]int),
	}

	for _, tb := range box.Teams {
		for _, a := range tb.Athletes {
			entry := Entry{
				ExternalID:     strings.TrimSpace(a.ExternalID),
				DisplayName:    a.DisplayName,
				NormalizedName: playername.Normalize(a.DisplayName),
				Position:       a.Position,
				DidNotPlay:     a.DidNotPlay || len(a.Stats) == 0,
				TeamKey:        tb.Team.Key,
			}
			if !entry.DidNotPlay {
				entry.Stats = a.Stats
			}
			idx.add(entry)
		}
	}

	for _, p := range box.Inactive {
		if !strings.EqualFold(strings.TrimSpace(p.Status), statusOut) {
			continue
		}
		if p.TeamKey != idx.teams[0].Key && p.TeamKey != idx.teams[1].Key {
			continue
		}
		idx.add(Entry{
			ExternalID:     strings.TrimSpace(p.ExternalID),
			DisplayName:    p.DisplayName,
			NormalizedName: playername.Normalize(p.DisplayName),
			DidNotPlay:     true,
			Status:         p.Status,
			TeamKey:        p.TeamKey,
		})
	}
	return idx, nil
}

// add skips entries without a name and players already indexed by id or by name on the
// same team, so the box score wins over the inactive list.
func (g *GameIndex) add(e Entry) {
	if e.NormalizedName == "" {
		return
	}
	if e.ExternalID != "" {
		if _, ok := g.byExtID[e.ExternalID]; ok {
			return
		}
	}
	for _, i := range g.byName[e.NormalizedName] {
		if g.entries[i].TeamKey == e.TeamKey {
			return
		}
	}

	g.entries = append(g.entries, e)
	pos := len(g.entries) - 1
	g.byName[e.NormalizedName] = append(g.byName[e.NormalizedName], pos)
	if e.ExternalID != "" {
		g.byExtID[e.ExternalID] = pos
	}
}

func (g *GameIndex) EventID() string { return g.eventID }

func (g *GameIndex) Teams() [2]Team { return g.teams }

// TeamKeys returns both team keys, for the single betting-line query per game.
func (g *GameIndex) TeamKeys() []string {
	return []string{g.teams[0].Key, g.teams[1].Key}
}

// Entries returns a copy of all indexed entries in insertion order.
func (g *GameIndex) Entries() []Entry {
	return append([]Entry(nil), g.entries...)
}

// Lookup returns every entry whose normalized name equals key.
func (g *GameIndex) Lookup(key string) []Entry {
	positions := g.byName[key]
	if len(positions) == 0 {
		return nil
	}
	out := make([]Entry, 0, len(positions))
	for _, i := range positions {
		out = append(out, g.entries[i])
	}
	return out
}

func (g *GameIndex) LookupByExternalID(id string) (Entry, bool) {
	i, ok := g.byExtID[strings.TrimSpace(id)]
	if !ok {
		return Entry{}, false
	}
	return g.entries[i], true
}

func (g *GameIndex) TeamOf(e Entry) Team {
	if e.TeamKey == g.teams[1].Key {
		return g.teams[1]
	}
	return g.teams[0]
}

func (g *GameIndex) OpponentOf(e Entry) Team {
	if e.TeamKey == g.teams[1].Key {
		return g.teams[0]
	}
	return g.teams[1]
}

// HasTeam reports whether key is one of the two rostered teams.
func (g *GameIndex) HasTeam(key string) bool {
	return key != "" && (key == g.teams[0].Key || key == g.teams[1].Key)
}
