package dto

// WindowInput is one weekly opening in a replace request. Times are UTC
// times of day; weekday follows time.Weekday numbering (Sunday = 0).
type WindowInput struct {
	Weekday    int    `json:"weekday" validate:"min=0,max=6"`
	StartOfDay string `json:"start_of_day" validate:"required"`
	EndOfDay   string `json:"end_of_day" validate:"required"`
}

// ReplaceAvailabilityRequest swaps a professional's full weekly template.
type ReplaceAvailabilityRequest struct {
	Windows []WindowInput `json:"windows" validate:"dive"`
}
