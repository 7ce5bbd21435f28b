package domain

type EngineStats struct {
	Pending       int64 `json:"pending"`
	Validated     int64 `json:"validated"`
	Rejected      int64 `json:"rejected"`
	Resolved      int64 `json:"resolved"`
	RecentReports int64 `json:"recent_reports"`
}

type StatsRequest struct {
	Minutes int `query:"minutes" validate:"min=1,max=1440"` // 1 day max
}
