package usecase

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/riskibarqy/playerlink/internal/domain/bettingline"
	"github.com/riskibarqy/playerlink/internal/domain/playername"
	"github.com/riskibarqy/playerlink/internal/domain/roster"
)

// SportAdapter holds what differs between sports: team naming, box-score stat labels,
// prop market keys and the feed rosters come from. The reconciliation engine is shared.
type SportAdapter interface {
	Sport() string
	RosterSource() BoxScoreFeed
	TeamKey(name string) string
	BuildBoxScore(ext ExternalBoxScore, gameDate time.Time) (roster.BoxScore, error)
	StatForMarket(market string) (bettingline.StatType, bool)
	Markets() []string
}

type statLabel struct {
	stat      bettingline.StatType
	madeCount bool
}

var nbaStatLabels = map[string]statLabel{
	"PTS": {stat: bettingline.StatPoints},
	"REB": {stat: bettingline.StatRebounds},
	"AST": {stat: bettingline.StatAssists},
	"3PT": {stat: bettingline.StatThrees, madeCount: true},
	"MIN": {stat: bettingline.StatMinutes},
	"FG":  {stat: bettingline.StatFieldGoalsMade, madeCount: true},
	"FT":  {stat: bettingline.StatFreeThrowsMade, madeCount: true},
	"STL": {stat: bettingline.StatSteals},
	"BLK": {stat: bettingline.StatBlocks},
	"TO":  {stat: bettingline.StatTurnovers},
	"+/-": {stat: bettingline.StatPlusMinus},
}

var nbaMarkets = map[string]bettingline.StatType{
	"player_points":   bettingline.StatPoints,
	"player_rebounds": bettingline.StatRebounds,
	"player_assists":  bettingline.StatAssists,
	"player_threes":   bettingline.StatThrees,
}

// Feeds disagree on a couple of franchise names.
var nbaTeamAliases = map[string]string{
	"la clippers": "los angeles clippers",
	"la lakers":   "los angeles lakers",
}

type NBAAdapter struct {
	feed BoxScoreFeed
}

func NewNBAAdapter(feed BoxScoreFeed) *NBAAdapter {
	return &NBAAdapter{feed: feed}
}

func (a *NBAAdapter) Sport() string { return "nba" }

func (a *NBAAdapter) RosterSource() BoxScoreFeed { return a.feed }

func (a *NBAAdapter) TeamKey(name string) string {
	key := playername.Normalize(name)
	if alias, ok := nbaTeamAliases[key]; ok {
		return alias
	}
	return key
}

func (a *NBAAdapter) StatForMarket(market string) (bettingline.StatType, bool) {
	stat, ok := nbaMarkets[strings.ToLower(strings.TrimSpace(market))]
	return stat, ok
}

func (a *NBAAdapter) Markets() []string {
	return []string{"player_points", "player_rebounds", "player_assists", "player_threes"}
}

func (a *NBAAdapter) BuildBoxScore(ext ExternalBoxScore, gameDate time.Time) (roster.BoxScore, error) {
	box := roster.BoxScore{
		EventID:  strings.TrimSpace(ext.EventID),
		GameDate: bettingline.DateOf(gameDate),
		Teams:    make([]roster.TeamBox, 0, len(ext.Teams)),
	}

	keyByTeamID := make(map[string]string, len(ext.Teams))
	for _, t := range ext.Teams {
		team := roster.Team{ExternalID: t.TeamExternalID, Name: t.TeamName, Key: a.TeamKey(t.TeamName)}
		keyByTeamID[t.TeamExternalID] = team.Key

		athletes := make([]roster.Athlete, 0, len(t.Athletes))
		for _, ath := range t.Athletes {
			if strings.TrimSpace(ath.DisplayName) == "" {
				continue
			}
			athlete := roster.Athlete{
				ExternalID:  ath.ExternalID,
				DisplayName: ath.DisplayName,
				Position:    ath.Position,
				DidNotPlay:  ath.DidNotPlay,
			}
			if !ath.DidNotPlay {
				athlete.Stats = nbaStatLine(t.StatLabels, ath.Stats)
			}
			athletes = append(athletes, athlete)
		}
		box.Teams = append(box.Teams, roster.TeamBox{Team: team, Athletes: athletes})
	}

	for _, inj := range ext.Injuries {
		teamKey := keyByTeamID[inj.TeamExternalID]
		if teamKey == "" && inj.TeamName != "" {
			teamKey = a.TeamKey(inj.TeamName)
		}
		box.Inactive = append(box.Inactive, roster.InactivePlayer{
			ExternalID:  inj.ExternalID,
			DisplayName: inj.DisplayName,
			Status:      inj.Status,
			TeamKey:     teamKey,
		})
	}

	if err := box.Validate(); err != nil {
		return roster.BoxScore{}, errors.Mark(err, ErrDataIntegrity)
	}
	return box, nil
}

// nbaStatLine zips labels with values. Unknown labels and unparseable values ("--") are dropped.
func nbaStatLine(labels, values []string) bettingline.StatLine {
	if len(values) == 0 {
		return nil
	}
	out := make(bettingline.StatLine, len(labels))
	for i, label := range labels {
		if i >= len(values) {
			break
		}
		def, ok := nbaStatLabels[strings.ToUpper(strings.TrimSpace(label))]
		if !ok {
			continue
		}
		raw := strings.TrimSpace(values[i])
		if def.madeCount {
			raw, _, _ = strings.Cut(raw, "-")
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		out[def.stat] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
