// internal/models/user.go
package models

import (
	"math"
	"time"
)

// UserProfile is the survey a user fills in before a plan is generated.
type UserProfile struct {
	UserID            int64     `json:"user_id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Age               int       `json:"age"`
	HeightCm          float64   `json:"height_cm"`
	WeightKg          float64   `json:"weight_kg"`
	BMI               float64   `json:"bmi"`
	BMICategory       string    `json:"bmi_category"`
	ActivityFrequency string    `json:"activity_frequency"`
	AvailableHours    float64   `json:"available_hours"`
	GymEquipment      bool      `json:"gym_equipment"`
	Goals             string    `json:"goals"`
	Injuries          string    `json:"injuries,omitempty"`
	CurrentPushups    int       `json:"current_pushups"`
	CurrentDips       int       `json:"current_dips"`
	CurrentPullups    int       `json:"current_pullups"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IsEmpty reports whether the profile carries no survey data at all.
func (p *UserProfile) IsEmpty() bool {
	if p == nil {
		return true
	}
	return p.Name == "" && p.Age == 0 && p.HeightCm == 0 && p.WeightKg == 0 &&
		p.Goals == "" && p.ActivityFrequency == ""
}

// UpdateBMI recomputes BMI and its category from height and weight.
func (p *UserProfile) UpdateBMI() {
	p.BMI = CalculateBMI(p.HeightCm, p.WeightKg)
	p.BMICategory = BMICategory(p.BMI)
}

// CalculateBMI returns weight / height² rounded to two decimals, or 0 when height is unknown.
func CalculateBMI(heightCm, weightKg float64) float64 {
	if heightCm <= 0 || weightKg <= 0 {
		return 0
	}
	m := heightCm / 100
	return math.Round(weightKg/(m*m)*100) / 100
}

func BMICategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "Underweight"
	case bmi < 25:
		return "Normal"
	case bmi < 30:
		return "Overweight"
	default:
		return "Obese"
	}
}
