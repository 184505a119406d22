package domain

const (
	JobImageResize    = "image.resize"
	JobBookingCheckIn = "booking.checkin"
)

type Job struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}
