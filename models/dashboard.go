package models

type DashboardStats struct {
	UsersTotal         int   `json:"users_total"`
	TeamsTotal         int   `json:"teams_total"`
	CompetitionsTotal  int   `json:"competitions_total"`
	ActiveCompetitions int   `json:"active_competitions"`
	ContactMessages    int   `json:"contact_messages"`
	RevenuePaid        int64 `json:"revenue_paid"`
	RevenueRefunded    int64 `json:"revenue_refunded"`
	RevenueNet         int64 `json:"revenue_net"`
}

// LeaderboardEntry: строка таблицы лидеров по командам.
type LeaderboardEntry struct {
	Rank             int    `json:"rank"`
	TeamID           int64  `json:"team_id"`
	TeamName         string `json:"team_name"`
	CompetitionCount int    `json:"competition_count"`
	PrizeTotal       int64  `json:"prize_total"`
}
