package model

// Summary backs the dashboard header counters.
type Summary struct {
	Appointments struct {
		Pending  int `json:"pending"`
		Unread   int `json:"unread"`
		Today    int `json:"today"`
		NextWeek int `json:"next_7_days"`
	} `json:"appointments"`
	CallRequests struct {
		Pending int `json:"pending"`
		Unread  int `json:"unread"`
	} `json:"call_requests"`
	ContactMessages struct {
		New    int `json:"new"`
		Unread int `json:"unread"`
	} `json:"contact_messages"`
}
