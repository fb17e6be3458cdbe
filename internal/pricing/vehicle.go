package pricing

import "strings"

// VehicleType is the raw type string as submitted by the quote form.
type VehicleType string

const (
	VehicleCarTruckSUV    VehicleType = "car/truck/suv"
	VehicleBoat           VehicleType = "boat"
	VehicleGolfCart       VehicleType = "golf cart"
	VehicleMotorcycle     VehicleType = "motorcycle"
	VehicleRV             VehicleType = "rv/5th wheel"
	VehicleTravelTrailer  VehicleType = "travel trailer"
	VehicleATV            VehicleType = "atv/utv"
	VehicleHeavyEquipment VehicleType = "heavy equipment"
	VehicleOther          VehicleType = "other"
)

// Category is the closed set the master pricing rules branch on. Classification
// is the single place that inspects the raw string, so the rules themselves
// never do substring matching.
type Category int

const (
	CategoryCar Category = iota
	CategoryRV
	CategoryOther
)

// Classify maps a raw vehicle type to its pricing category. Unknown strings
// land in CategoryOther, which carries the fallback minimum.
func Classify(vehicleType VehicleType) Category {
	raw := strings.ToLower(strings.TrimSpace(string(vehicleType)))
	switch raw {
	case "car", "truck", "suv", string(VehicleCarTruckSUV):
		return CategoryCar
	}
	if strings.Contains(raw, "rv") {
		return CategoryRV
	}
	return CategoryOther
}

// vehicleMultipliers is the fixed per-type factor applied after the master
// rules. Types missing from the table fall back to 1.0.
var vehicleMultipliers = map[VehicleType]float64{
	VehicleCarTruckSUV:    1.0,
	VehicleBoat:           1.4,
	VehicleGolfCart:       0.8,
	VehicleMotorcycle:     0.7,
	VehicleRV:             1.8,
	VehicleTravelTrailer:  1.6,
	VehicleATV:            0.75,
	VehicleHeavyEquipment: 2.0,
	VehicleOther:          1.3,
}
