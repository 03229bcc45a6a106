package domain

import "time"

// ModelPredictionRecord is one game as reported by the prediction
// source, with that source's own team spellings.
type ModelPredictionRecord struct {
	SportKey        string
	HomeTeam        string
	AwayTeam        string
	PredictedMargin float64 // home perspective, positive = home favored
	HomeWinProb     float64 // in (0,1)
	FetchedAt       time.Time
}
