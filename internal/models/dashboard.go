package models

// DashboardStats is the summary shown on the dashboard. It is a pure
// function of the stores at query time; a metric whose source failed is
// reported as zero rather than failing the whole aggregate.
type DashboardStats struct {
	TotalFriends     int `json:"total_friends"`
	CloseFriends     int `json:"close_friends"`
	UpcomingMeetings int `json:"upcoming_meetings"`
	PendingRequests  int `json:"pending_requests"`
}
