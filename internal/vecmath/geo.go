package vecmath

import "math"

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two coordinates in
// kilometres.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * (math.Pi / 180.0)
	dLon := (lon2 - lon1) * (math.Pi / 180.0)
	lat1Rad := lat1 * (math.Pi / 180.0)
	lat2Rad := lat2 * (math.Pi / 180.0)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// BoundingBox returns the lat/lon box that contains every point within
// radiusKm of the centre. The longitude half-width is the widest meridian
// offset the circle reaches, asin(sin δ / cos φ), which lies north or south
// of the centre's parallel. Longitude bounds widen to the full range when the
// circle reaches a pole or crosses the antimeridian.
func BoundingBox(lat, lon, radiusKm float64) (minLat, maxLat, minLon, maxLon float64) {
	delta := radiusKm / earthRadiusKm
	dLat := delta * (180.0 / math.Pi)
	minLat = lat - dLat
	maxLat = lat + dLat
	if minLat <= -90 || maxLat >= 90 {
		return math.Max(minLat, -90), math.Min(maxLat, 90), -180, 180
	}

	ratio := math.Sin(delta) / math.Cos(lat*(math.Pi/180.0))
	if delta >= math.Pi/2 || ratio >= 1 {
		return minLat, maxLat, -180, 180
	}
	dLon := math.Asin(ratio) * (180.0 / math.Pi)
	minLon = lon - dLon
	maxLon = lon + dLon
	if minLon < -180 || maxLon > 180 {
		return minLat, maxLat, -180, 180
	}
	return minLat, maxLat, minLon, maxLon
}
