package model

// EventType classifies a lead submission for webhook routing.
type EventType string

const (
	EventQuoteSubmission EventType = "quote_submission"
	EventFinalSubmission EventType = "final_submission"
	EventFormSubmission  EventType = "form_submission"
)

// Attribution carries marketing source parameters captured on the form.
type Attribution struct {
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	UTMTerm     string `json:"utm_term"`
	UTMContent  string `json:"utm_content"`
	FBCLID      string `json:"fbclid"`
	Referrer    string `json:"referrer"`
}

// IsEmpty reports whether no attribution parameter was captured.
func (a Attribution) IsEmpty() bool {
	return a.UTMSource == "" && a.UTMMedium == "" && a.UTMCampaign == "" &&
		a.UTMTerm == "" && a.UTMContent == "" && a.FBCLID == "" && a.Referrer == ""
}

// Lead is the canonical lead record assembled per submission. It exists for
// the duration of one relay; the downstream payload shapes are derived from it.
type Lead struct {
	SubmissionID   string
	SubmissionDate string
	EventType      EventType

	Name  string
	Email string
	Phone string

	PickupLocation  string
	DropoffLocation string
	PickupZip       string
	DropoffZip      string

	DistanceMiles float64
	TransitTime   int

	OpenTransportPrice     int
	EnclosedTransportPrice int

	VehicleYear  string
	VehicleMake  string
	VehicleModel string
	VehicleType  string

	ShipmentDate string

	Attribution Attribution
}
