package search

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fairskies/destination-search/internal/weather"
)

// MaxSearchRadiusKm caps the requested search radius.
const MaxSearchRadiusKm = 500.0

const dateLayout = "2006-01-02"

var validate = validator.New()

// Params is the inbound search request. Optional fields are pointers so
// "absent" and "zero" stay distinguishable.
type Params struct {
	CenterLatitude        float64  `json:"centerLatitude" validate:"gte=-90,lte=90"`
	CenterLongitude       float64  `json:"centerLongitude" validate:"gte=-180,lte=180"`
	SearchRadius          float64  `json:"searchRadius"`
	StartDate             string   `json:"startDate" validate:"required"`
	EndDate               string   `json:"endDate" validate:"required"`
	DesiredMinTemperature *float64 `json:"desiredMinTemperature,omitempty"`
	DesiredMaxTemperature *float64 `json:"desiredMaxTemperature,omitempty"`
	DesiredConditions     []string `json:"desiredConditions"`
	TimeSlots             []string `json:"timeSlots"`
}

// Validate checks the request before any pipeline work runs. Messages are
// user-facing.
func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}

	if p.SearchRadius <= 0 {
		return errors.New("search radius must be a positive number of kilometers")
	}
	if p.SearchRadius > MaxSearchRadiusKm {
		return fmt.Errorf("search radius must not exceed %.0f km", MaxSearchRadiusKm)
	}

	start, err := time.Parse(dateLayout, p.StartDate)
	if err != nil {
		return errors.New("start date must be a calendar date in YYYY-MM-DD format")
	}
	end, err := time.Parse(dateLayout, p.EndDate)
	if err != nil {
		return errors.New("end date must be a calendar date in YYYY-MM-DD format")
	}
	if start.After(end) {
		return errors.New("start date must be on or before the end date")
	}

	if p.DesiredMinTemperature != nil && p.DesiredMaxTemperature != nil &&
		*p.DesiredMinTemperature > *p.DesiredMaxTemperature {
		return errors.New("desired minimum temperature must not exceed the desired maximum")
	}

	return nil
}

// DesiredConditionSet normalizes the requested condition names to the
// internal vocabulary (lowercased; unknown names pass through and simply
// never match anything).
func (p Params) DesiredConditionSet() []weather.Condition {
	if len(p.DesiredConditions) == 0 {
		return nil
	}
	desired := make([]weather.Condition, 0, len(p.DesiredConditions))
	for _, name := range p.DesiredConditions {
		desired = append(desired, weather.Condition(strings.ToLower(name)))
	}
	return desired
}
