package usecase

import (
	"context"
	"time"
)

// BoxScoreFeed is the authoritative statistics provider.
type BoxScoreFeed interface {
	ListGames(ctx context.Context, date time.Time) ([]ExternalGame, error)
	FetchBoxScore(ctx context.Context, eventID string) (ExternalBoxScore, error)
}

// OddsFeed is the betting-odds provider.
type OddsFeed interface {
	ListEvents(ctx context.Context, date time.Time) ([]ExternalOddsEvent, error)
	FetchPlayerProps(ctx context.Context, eventID string, markets []string) ([]ExternalPropOutcome, error)
}

type ExternalGame struct {
	EventID      string
	StartsAt     time.Time
	Completed    bool
	HomeTeamName string
	AwayTeamName string
}

type ExternalBoxScore struct {
	EventID  string
	Teams    []ExternalTeamBox
	Injuries []ExternalInjury
}

type ExternalTeamBox struct {
	TeamExternalID string
	TeamName       string
	StatLabels     []string
	Athletes       []ExternalAthlete
}

type ExternalAthlete struct {
	ExternalID  string
	DisplayName string
	Position    string
	DidNotPlay  bool
	Stats       []string
}

type ExternalInjury struct {
	ExternalID     string
	DisplayName    string
	Status         string
	TeamExternalID string
	TeamName       string
}

type ExternalOddsEvent struct {
	EventID      string
	CommenceTime time.Time
	HomeTeam     string
	AwayTeam     string
}

// ExternalPropOutcome is one side of one player prop at one bookmaker.
type ExternalPropOutcome struct {
	EventID      string
	CommenceTime time.Time
	HomeTeam     string
	AwayTeam     string
	Bookmaker    string
	Market       string
	PlayerName   string
	Side         string
	Point        float64
	Price        float64
}
