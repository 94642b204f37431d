package dto

// HealthResponse is the body of GET /api/health
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
