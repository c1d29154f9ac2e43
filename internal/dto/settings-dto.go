package dto

import "encoding/json"

type UpdateSettingDTO struct {
	Value json.RawMessage `json:"value" validate:"required"`
}

type RotateWeekResultDTO struct {
	PreviousWeek int `json:"previous_week"`
	CurrentWeek  int `json:"current_week"`
}
