package model

import (
	"time"

	"github.com/google/uuid"
)

// QuoteRecord is the persisted form of a submission. Storage is best effort:
// a failed insert never blocks quoting or webhook delivery.
type QuoteRecord struct {
	ID              uuid.UUID
	SubmissionID    string
	EventType       string
	Name            string
	Email           string
	Phone           string
	PickupLocation  string
	DropoffLocation string
	VehicleYear     string
	VehicleMake     string
	VehicleModel    string
	VehicleType     string
	DistanceMiles   float64
	TransitDays     int
	OpenPrice       int
	EnclosedPrice   int
	ShipmentDate    string
	CreatedAt       time.Time
}

// QuoteDocument bundles everything the printable quote summary needs.
type QuoteDocument struct {
	Record      QuoteRecord
	GeneratedAt time.Time
}
