package common

type HelloResponse struct {
	Message string `json:"message"`
}

// MeResponse is the caller's identity as seen by the auth boundary.
type MeResponse struct {
	ID              uint   `json:"id"`
	Username        string `json:"username"`
	IsAuthenticated bool   `json:"is_authenticated"`
	Email           string `json:"email"`
}

type HealthResponse struct {
	Database string `json:"database"`
	Redis    string `json:"redis"`
}
