package service

import (
	"encoding/json"
	"time"

	"github.com/smartwatt/plan-advisor/internal/domain"
	"github.com/smartwatt/plan-advisor/internal/repository"
)

// UsageService ingests monthly usage readings from the broker.
type UsageService struct {
	repos *repository.Repos
}

// FromMQTT parses one monthly usage payload and persists it. The kWh
// invariant is enforced at construction, so a negative reading is rejected
// here at the boundary.
func (s *UsageService) FromMQTT(topic string, payload []byte) error {
	var r struct {
		UserID string    `json:"user_id"`
		Month  time.Time `json:"month"`
		KWH    float64   `json:"kwh"`
	}
	if err := json.Unmarshal(payload, &r); err != nil {
		return err
	}
	u, err := domain.NewMonthlyUsage(r.Month, r.KWH)
	if err != nil {
		return err
	}
	return s.repos.InsertUsage(r.UserID, u)
}
