package oddsapi

import "time"

type eventPayload struct {
	ID           string    `json:"id"`
	SportKey     string    `json:"sport_key"`
	CommenceTime time.Time `json:"commence_time"`
	HomeTeam     string    `json:"home_team"`
	AwayTeam     string    `json:"away_team"`
}

type eventOddsPayload struct {
	eventPayload
	Bookmakers []bookmakerPayload `json:"bookmakers"`
}

type bookmakerPayload struct {
	Key     string          `json:"key"`
	Title   string          `json:"title"`
	Markets []marketPayload `json:"markets"`
}

type marketPayload struct {
	Key        string           `json:"key"`
	LastUpdate time.Time        `json:"last_update"`
	Outcomes   []outcomePayload `json:"outcomes"`
}

// outcomePayload is one side of a prop. For player markets Name is Over/Under and
// Description carries the player name.
type outcomePayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Point       *float64 `json:"point"`
}
