package core

import "math"

// EarthRadiusKm is the mean Earth radius used for all great-circle
// calculations (kilometres).
const EarthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometres between two
// latitude/longitude points. It is symmetric and returns zero for
// identical points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(a))
}

// InitialBearing returns the initial great-circle bearing from the first
// point towards the second, in degrees [0, 360). 0° = north, 90° = east.
// For identical points the bearing is 0.
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dLambda := radians(lon2 - lon1)

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	if y == 0 && x == 0 {
		return 0
	}

	theta := math.Atan2(y, x)
	return math.Mod(theta*180/math.Pi+360, 360)
}

// CompassDirection maps a bearing in degrees to one of the eight cardinal
// and intercardinal names.
func CompassDirection(bearing float64) string {
	names := [...]string{
		"North", "Northeast", "East", "Southeast",
		"South", "Southwest", "West", "Northwest",
	}
	idx := int(math.Mod(bearing+22.5, 360) / 45)
	if idx < 0 || idx >= len(names) {
		idx = 0
	}
	return names[idx]
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
