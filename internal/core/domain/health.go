package domain

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthReport struct {
	Status   HealthStatus      `json:"status"`
	Services map[string]string `json:"services"`
}
