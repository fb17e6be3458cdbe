package webhook

import (
	"regexp"
	"strings"
	"time"

	"github.com/amerigo/quote-service/internal/model"
)

// NotProvided is the sentinel the automation platform expects for fields the
// form left blank.
const NotProvided = "Not provided"

var (
	cityPattern  = regexp.MustCompile(`^([^,]+)`)
	statePattern = regexp.MustCompile(`,\s*([A-Z]{2})`)
	zipPattern   = regexp.MustCompile(`(\d{5})(?:\s*$|-\d{4}\s*$)`)
)

// ExtractCity returns the substring before the first comma of a
// "City, ST ZIP" location string.
func ExtractCity(location string) string {
	if location == "" {
		return NotProvided
	}
	match := cityPattern.FindStringSubmatch(location)
	if match == nil {
		return NotProvided
	}
	return trimmedOrSentinel(match[1])
}

// ExtractState returns the 2-letter state code following a comma.
func ExtractState(location string) string {
	if location == "" {
		return NotProvided
	}
	match := statePattern.FindStringSubmatch(location)
	if match == nil {
		return NotProvided
	}
	return match[1]
}

// ExtractZip returns the trailing 5-digit ZIP, accepting the ZIP+4 form.
func ExtractZip(location string) string {
	if location == "" {
		return NotProvided
	}
	match := zipPattern.FindStringSubmatch(location)
	if match == nil {
		return NotProvided
	}
	return match[1]
}

var shipmentDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// FormatShipmentDate renders a shipment date as MM/DD/YYYY. Unparseable input
// falls back to the raw string so a malformed date never blocks a relay.
func FormatShipmentDate(raw string) string {
	if raw == "" {
		return NotProvided
	}
	for _, layout := range shipmentDateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.Format("01/02/2006")
		}
	}
	return raw
}

// BuildPayload derives the merged dual-format webhook body from the canonical
// lead record: machine-keyed fields first, then the human-labeled fields the
// automation templates map by, which win on key collisions. Both shapes must
// always describe the same underlying values.
func BuildPayload(lead model.Lead) map[string]any {
	payload := machineFields(lead)
	for key, value := range humanFields(lead) {
		payload[key] = value
	}
	return payload
}

func machineFields(lead model.Lead) map[string]any {
	pickupZip := zipOrDerived(lead.PickupZip, lead.PickupLocation)
	dropoffZip := zipOrDerived(lead.DropoffZip, lead.DropoffLocation)

	return map[string]any{
		"contactInfo": map[string]any{
			"name":  orSentinel(lead.Name),
			"email": orSentinel(lead.Email),
			"phone": orSentinel(lead.Phone),
		},
		"name":  orSentinel(lead.Name),
		"email": orSentinel(lead.Email),
		"phone": orSentinel(lead.Phone),

		"pickupLocation":  orSentinel(lead.PickupLocation),
		"dropoffLocation": orSentinel(lead.DropoffLocation),
		"pickup_city":     ExtractCity(lead.PickupLocation),
		"pickup_state":    ExtractState(lead.PickupLocation),
		"pickup_zip":      pickupZip,
		"pickupZip":       pickupZip,
		"dropoff_city":    ExtractCity(lead.DropoffLocation),
		"dropoff_state":   ExtractState(lead.DropoffLocation),
		"dropoff_zip":     dropoffZip,
		"dropoffZip":      dropoffZip,

		"distance":     lead.DistanceMiles,
		"transit_time": lead.TransitTime,
		"transitTime":  lead.TransitTime,

		"open_transport_price":     priceOrSentinel(lead.OpenTransportPrice),
		"enclosed_transport_price": priceOrSentinel(lead.EnclosedTransportPrice),
		"openTransportPrice":       priceOrSentinel(lead.OpenTransportPrice),
		"enclosedTransportPrice":   priceOrSentinel(lead.EnclosedTransportPrice),

		"vehicle_year":  orSentinel(lead.VehicleYear),
		"vehicle_make":  orSentinel(lead.VehicleMake),
		"vehicle_model": orSentinel(lead.VehicleModel),
		"vehicle_type":  orSentinel(lead.VehicleType),
		"year":          orSentinel(lead.VehicleYear),
		"make":          orSentinel(lead.VehicleMake),
		"model":         orSentinel(lead.VehicleModel),
		"vehicleType":   orSentinel(lead.VehicleType),

		"shipment_date":   FormatShipmentDate(lead.ShipmentDate),
		"submission_date": lead.SubmissionDate,
		"shipmentDate":    orSentinel(lead.ShipmentDate),
		"submissionDate":  lead.SubmissionDate,

		"submission_id": lead.SubmissionID,
		"event_type":    string(lead.EventType),
		"submissionId":  lead.SubmissionID,
		"eventType":     string(lead.EventType),

		"fbclid":       orNil(lead.Attribution.FBCLID),
		"utm_source":   orNil(lead.Attribution.UTMSource),
		"utm_medium":   orNil(lead.Attribution.UTMMedium),
		"utm_campaign": orNil(lead.Attribution.UTMCampaign),
		"utm_term":     orNil(lead.Attribution.UTMTerm),
		"utm_content":  orNil(lead.Attribution.UTMContent),
		"referrer":     lead.Attribution.Referrer,
	}
}

func humanFields(lead model.Lead) map[string]any {
	pickupZip := zipOrDerived(lead.PickupZip, lead.PickupLocation)
	dropoffZip := zipOrDerived(lead.DropoffZip, lead.DropoffLocation)
	shipmentDate := FormatShipmentDate(lead.ShipmentDate)

	return map[string]any{
		"submissionId":   lead.SubmissionID,
		"submissionDate": lead.SubmissionDate,
		"eventType":      string(lead.EventType),

		"Contact Info Name":             orSentinel(lead.Name),
		"Contact Info Email":            orSentinel(lead.Email),
		"Contact Info Phone (required)": orSentinel(lead.Phone),

		"Route Details Pickup City":            ExtractCity(lead.PickupLocation),
		"Route Details Pickup State":           ExtractState(lead.PickupLocation),
		"Route Details Pickup Zip":             pickupZip,
		"Route Details Dropoff City":           ExtractCity(lead.DropoffLocation),
		"Route Details Dropoff State":          ExtractState(lead.DropoffLocation),
		"Route Details Dropoff Zip":            dropoffZip,
		"Route Details Distance (in miles)":    lead.DistanceMiles,
		"Route Details Estimated Transit Time": lead.TransitTime,
		"Route Details Shipment Date":          shipmentDate,

		"Price Details Total Price (Open Transport Only)": priceOrSentinel(lead.OpenTransportPrice),

		"Vehicle Details Year":  orSentinel(lead.VehicleYear),
		"Vehicle Details Make":  orSentinel(lead.VehicleMake),
		"Vehicle Details Model": orSentinel(lead.VehicleModel),

		"pickupLocation":         orSentinel(lead.PickupLocation),
		"dropoffLocation":        orSentinel(lead.DropoffLocation),
		"vehicleType":            orSentinel(lead.VehicleType),
		"shipmentDate":           shipmentDate,
		"enclosedTransportPrice": priceOrSentinel(lead.EnclosedTransportPrice),
	}
}

func zipOrDerived(explicit, location string) string {
	if explicit != "" {
		return explicit
	}
	return ExtractZip(location)
}

func orSentinel(value string) string {
	if value == "" {
		return NotProvided
	}
	return value
}

func trimmedOrSentinel(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return NotProvided
	}
	return trimmed
}

func priceOrSentinel(price int) any {
	if price == 0 {
		return NotProvided
	}
	return price
}

func orNil(value string) any {
	if value == "" {
		return nil
	}
	return value
}
