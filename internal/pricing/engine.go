package pricing

import (
	"math"
	"regexp"
	"time"

	"github.com/rs/zerolog"
)

const (
	baseRatePerMile    = 0.614
	enclosedMultiplier = 1.40

	midRangeDistance  = 800
	midRangeSurcharge = 1.10

	shortRouteDistance = 1500
	shortRouteMarkup   = 1.40

	snowbirdFloor = 1150
	ncgaToNYFloor = 1050

	carFloor        = 695
	carUpliftLow    = 696
	carUpliftHigh   = 1070
	carUplift       = 1.2
	rvFloor         = 750
	rvShortUplift   = 1.3
	absoluteMinimum = 695
)

const (
	msgNoDistance = "Unable to calculate distance. Please try again."
	msgShortHaul  = "For short distances under 100 miles, please contact us directly for a custom quote."
)

var statePattern = regexp.MustCompile(`\b([A-Z]{2})\b`)

// northeastStates is the dropoff set for Snowbird route detection.
var northeastStates = map[string]struct{}{
	"ME": {}, "NH": {}, "VT": {}, "MA": {}, "RI": {},
	"CT": {}, "NY": {}, "NJ": {}, "PA": {},
}

// Quote is the priced result of one calculation. Prices are whole dollars.
// A zero-price quote carries a user-facing Message instead.
type Quote struct {
	OpenTransport     int    `json:"openTransport"`
	EnclosedTransport int    `json:"enclosedTransport"`
	TransitTime       int    `json:"transitTime"`
	Message           string `json:"message,omitempty"`
}

// Engine computes shipping quotes. Calculate is deterministic: identical
// inputs always produce identical output, the logger is only used to flag
// unknown vehicle types.
type Engine struct {
	log zerolog.Logger
}

func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log}
}

// Calculate prices one shipment. The date parameter is accepted for future
// seasonal rules but currently unused by every branch.
//
// The rule order is load bearing: base rate, mid-range surcharge, short-route
// car markup, route-specific floors, master category rules, vehicle
// multiplier, enclosed derivation, absolute minimum, rounding. Do not reorder
// without confirming the intended business behavior.
func (e *Engine) Calculate(distance float64, vehicleType VehicleType, _ time.Time, pickupLocation, dropoffLocation string) Quote {
	if distance == 0 {
		return Quote{Message: msgNoDistance}
	}

	transitTime := int(math.Ceil(distance/400)) + 1

	// Short hauls are quoted by hand.
	if distance <= 100 {
		return Quote{TransitTime: transitTime, Message: msgShortHaul}
	}

	// Special routes only apply to the car/truck/suv form option, and only
	// when both endpoints are known.
	snowbirdRoute := false
	ncgaToNYRoute := false
	if vehicleType == VehicleCarTruckSUV && pickupLocation != "" && dropoffLocation != "" {
		pickupState := ExtractState(pickupLocation)
		dropoffState := ExtractState(dropoffLocation)

		if pickupState == "FL" {
			if _, ok := northeastStates[dropoffState]; ok {
				snowbirdRoute = true
			}
		}
		if (pickupState == "NC" || pickupState == "GA") && dropoffState == "NY" {
			ncgaToNYRoute = true
		}
	}

	price := distance * baseRatePerMile
	if distance <= midRangeDistance {
		price *= midRangeSurcharge
	}
	if distance < shortRouteDistance && vehicleType == VehicleCarTruckSUV {
		price *= shortRouteMarkup
	}

	if snowbirdRoute {
		price = math.Max(price, snowbirdFloor)
	}
	if ncgaToNYRoute {
		price = math.Max(price, ncgaToNYFloor)
	}

	switch Classify(vehicleType) {
	case CategoryCar:
		if price < carFloor {
			price = carFloor
		}
		if price >= carUpliftLow && price <= carUpliftHigh {
			price = math.Round(price * carUplift)
		}
	case CategoryRV:
		// Floor and uplift are mutually exclusive: the uplift only applies
		// when the floor was not needed.
		if price < rvFloor {
			price = rvFloor
		} else if distance < shortRouteDistance {
			price = math.Round(price * rvShortUplift)
		}
	default:
		price = math.Max(price, carFloor)
	}

	multiplier, ok := vehicleMultipliers[vehicleType]
	if !ok {
		multiplier = 1.0
		e.log.Warn().Str("vehicle_type", string(vehicleType)).Msg("unknown vehicle type, using default multiplier")
	}

	openPrice := price * multiplier
	enclosedPrice := openPrice * enclosedMultiplier

	// No quote goes out below the absolute minimum, each tier independently.
	openPrice = math.Max(openPrice, absoluteMinimum)
	enclosedPrice = math.Max(enclosedPrice, absoluteMinimum)

	return Quote{
		OpenTransport:     int(math.Round(openPrice)),
		EnclosedTransport: int(math.Round(enclosedPrice)),
		TransitTime:       transitTime,
	}
}

// ExtractState pulls the first 2-letter state code out of a free-text
// "City, ST ZIP" location string. Returns "" when none is found.
func ExtractState(location string) string {
	if location == "" {
		return ""
	}
	match := statePattern.FindStringSubmatch(location)
	if match == nil {
		return ""
	}
	return match[1]
}
