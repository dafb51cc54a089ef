package model

import "github.com/google/uuid"

// StatusCounts is a per-status request count breakdown.
type StatusCounts struct {
	New        int64
	InProgress int64
	Repaired   int64
	Scrap      int64
}

func (c StatusCounts) Total() int64 {
	return c.New + c.InProgress + c.Repaired + c.Scrap
}

type TeamReport struct {
	TeamID   uuid.UUID
	TeamName string
	Counts   StatusCounts
}

type CategoryReport struct {
	Category string
	Total    int64
}

type StatusReport struct {
	Status     RequestStatus
	Count      int64
	Percentage float64
}

// DurationBucket is an average-duration rollup over repaired requests,
// grouped by the named dimension (request type, category, or team).
type DurationBucket struct {
	Key          string
	Requests     int64
	AverageHours float64
}

type DurationAnalysis struct {
	OverallAverageHours float64
	RepairedRequests    int64
	ByType              []DurationBucket
	ByCategory          []DurationBucket
	ByTeam              []DurationBucket
}

type DashboardStats struct {
	Counts         StatusCounts
	OverdueCount   int64
	EquipmentTotal int64
	ScrappedCount  int64
}
