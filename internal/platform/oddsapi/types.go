package oddsapi

import (
	"strconv"
	"time"

	"github.com/dmeltzer/linesight/internal/domain"
)

// APIEvent represents one game as returned by the odds endpoint.
type APIEvent struct {
	ID           string         `json:"id"`
	SportKey     string         `json:"sport_key"`
	SportTitle   string         `json:"sport_title"`
	CommenceTime time.Time      `json:"commence_time"`
	HomeTeam     string         `json:"home_team"`
	AwayTeam     string         `json:"away_team"`
	Bookmakers   []APIBookmaker `json:"bookmakers"`
}

// APIBookmaker is one bookmaker's markets for an event.
type APIBookmaker struct {
	Key        string      `json:"key"`
	Title      string      `json:"title"`
	LastUpdate time.Time   `json:"last_update"`
	Markets    []APIMarket `json:"markets"`
}

// APIMarket is one market ("h2h" or "spreads") quoted by a bookmaker.
type APIMarket struct {
	Key      string       `json:"key"`
	Outcomes []APIOutcome `json:"outcomes"`
}

// APIOutcome is one side's price. Point is only present on spread
// outcomes and carries the posted line from that team's perspective.
type APIOutcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

// APIScoreEvent represents one game as returned by the scores endpoint.
type APIScoreEvent struct {
	ID           string     `json:"id"`
	SportKey     string     `json:"sport_key"`
	CommenceTime time.Time  `json:"commence_time"`
	Completed    bool       `json:"completed"`
	HomeTeam     string     `json:"home_team"`
	AwayTeam     string     `json:"away_team"`
	Scores       []APIScore `json:"scores"`
	LastUpdate   time.Time  `json:"last_update"`
}

// APIScore is one team's final or in-progress score, serialized by the
// API as a string.
type APIScore struct {
	Name  string `json:"name"`
	Score string `json:"score"`
}

// marketKeys maps API market keys to domain market kinds.
var marketKeys = map[string]domain.MarketKind{
	"h2h":     domain.MarketMoneyline,
	"spreads": domain.MarketSpread,
}

// ToOddsRecord flattens an event's bookmakers into a GameOddsRecord.
// Outcomes are assigned to a side by matching the outcome name against
// the event's own team names; outcomes naming neither team are dropped.
func (e *APIEvent) ToOddsRecord() domain.GameOddsRecord {
	rec := domain.GameOddsRecord{
		SportKey:     e.SportKey,
		HomeTeam:     e.HomeTeam,
		AwayTeam:     e.AwayTeam,
		CommenceTime: e.CommenceTime,
	}
	for _, bk := range e.Bookmakers {
		for _, m := range bk.Markets {
			kind, ok := marketKeys[m.Key]
			if !ok {
				continue
			}
			for _, out := range m.Outcomes {
				side, ok := sideFor(out.Name, e.HomeTeam, e.AwayTeam)
				if !ok {
					continue
				}
				q := domain.Quote{
					Bookmaker: bk.Title,
					Market:    kind,
					Side:      side,
					Odds:      int(out.Price),
				}
				if kind == domain.MarketSpread {
					if out.Point == nil {
						continue
					}
					q.Line = *out.Point
				}
				rec.Quotes = append(rec.Quotes, q)
			}
		}
	}
	return rec
}

func sideFor(name, home, away string) (domain.Side, bool) {
	switch name {
	case home:
		return domain.SideHome, true
	case away:
		return domain.SideAway, true
	}
	return "", false
}

// ToGameResult converts a scores event. Completed games with missing or
// unparseable scores return ok=false so callers can skip them.
func (e *APIScoreEvent) ToGameResult() (domain.GameResult, bool) {
	res := domain.GameResult{
		SportKey:     e.SportKey,
		HomeTeam:     e.HomeTeam,
		AwayTeam:     e.AwayTeam,
		Completed:    e.Completed,
		CommenceTime: e.CommenceTime,
		UpdatedAt:    e.LastUpdate,
	}
	if !e.Completed {
		return res, true
	}

	homeOK, awayOK := false, false
	for _, s := range e.Scores {
		n, err := strconv.Atoi(s.Score)
		if err != nil {
			continue
		}
		switch s.Name {
		case e.HomeTeam:
			res.HomeScore = n
			homeOK = true
		case e.AwayTeam:
			res.AwayScore = n
			awayOK = true
		}
	}
	if !homeOK || !awayOK {
		return domain.GameResult{}, false
	}
	return res, true
}

// filterWindow keeps events commencing strictly after now and no later
// than now plus the window.
func filterWindow(events []APIEvent, now time.Time, days int) []APIEvent {
	cutoff := now.AddDate(0, 0, days)
	out := make([]APIEvent, 0, len(events))
	for _, e := range events {
		if e.CommenceTime.After(now) && !e.CommenceTime.After(cutoff) {
			out = append(out, e)
		}
	}
	return out
}
