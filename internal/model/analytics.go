package model

// AnalyticsSummary is the organization dashboard rollup. The today bucket is
// keyed by calendar-date equality with the caller's current date, and every
// field is recomputed in full on each call.
type AnalyticsSummary struct {
	Today TodayCounts `json:"today"`
	Total int         `json:"total"`
}

type TodayCounts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}
