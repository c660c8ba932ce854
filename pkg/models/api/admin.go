package api

type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Details   string `json:"details"`
}

type LogsResponse struct {
	Success bool       `json:"success"`
	Logs    []LogEntry `json:"logs"`
}

type LogsStats struct {
	Total   int `json:"total"`
	Users   int `json:"users"`
	Actions int `json:"actions"`
}

type LogsStatsResponse struct {
	Success bool      `json:"success"`
	Stats   LogsStats `json:"stats"`
}

type User struct {
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

type UsersResponse struct {
	Success bool   `json:"success"`
	Users   []User `json:"users"`
}

type LogoutResponse struct {
	Success  bool   `json:"success"`
	Redirect string `json:"redirect"`
}
