// Package geo provides postal-code-prefix geolocation and great-circle
// distance math for warehouse selection. It is pure computation: no network
// calls, no stored state.
package geo

import (
	"math"
	"strings"
)

const earthRadiusMiles = 3958.8

// Coordinate is a lat/lng pair in decimal degrees.
type Coordinate struct {
	Lat float64
	Lng float64
}

// zipPrefixCoordinates maps 3-digit US ZIP prefixes to an approximate
// centroid. Coverage is intentionally coarse: it only needs to rank a
// handful of warehouses by rough distance, not geocode precisely.
var zipPrefixCoordinates = map[string]Coordinate{
	// Northeast
	"010": {42.10, -72.59}, // Springfield MA
	"021": {42.36, -71.06}, // Boston MA
	"028": {41.82, -71.41}, // Providence RI
	"061": {41.76, -72.69}, // Hartford CT
	"070": {40.73, -74.17}, // Newark NJ
	"100": {40.71, -74.01}, // New York NY
	"112": {40.68, -73.94}, // Brooklyn NY
	"142": {42.89, -78.88}, // Buffalo NY
	"191": {39.95, -75.17}, // Philadelphia PA
	"152": {40.44, -80.00}, // Pittsburgh PA
	// Mid-Atlantic / Southeast
	"202": {38.91, -77.04}, // Washington DC
	"212": {39.29, -76.61}, // Baltimore MD
	"232": {37.54, -77.44}, // Richmond VA
	"275": {35.78, -78.64}, // Raleigh NC
	"282": {35.23, -80.84}, // Charlotte NC
	"292": {34.00, -81.03}, // Columbia SC
	"303": {33.75, -84.39}, // Atlanta GA
	"322": {30.33, -81.66}, // Jacksonville FL
	"331": {25.76, -80.19}, // Miami FL
	"336": {27.95, -82.46}, // Tampa FL
	"328": {28.54, -81.38}, // Orlando FL
	// South Central
	"352": {33.52, -86.80}, // Birmingham AL
	"370": {36.16, -86.78}, // Nashville TN
	"381": {35.15, -90.05}, // Memphis TN
	"390": {32.30, -90.18}, // Jackson MS
	"701": {29.95, -90.07}, // New Orleans LA
	"721": {34.75, -92.29}, // Little Rock AR
	"730": {35.47, -97.52}, // Oklahoma City OK
	"750": {32.78, -96.80}, // Dallas TX
	"770": {29.76, -95.37}, // Houston TX
	"782": {29.42, -98.49}, // San Antonio TX
	"787": {30.27, -97.74}, // Austin TX
	"799": {31.76, -106.49}, // El Paso TX
	// Midwest
	"432": {39.96, -83.00}, // Columbus OH
	"441": {41.50, -81.69}, // Cleveland OH
	"452": {39.10, -84.51}, // Cincinnati OH
	"462": {39.77, -86.16}, // Indianapolis IN
	"482": {42.33, -83.05}, // Detroit MI
	"532": {43.04, -87.91}, // Milwaukee WI
	"554": {44.98, -93.27}, // Minneapolis MN
	"606": {41.88, -87.63}, // Chicago IL
	"631": {38.63, -90.20}, // St. Louis MO
	"641": {39.10, -94.58}, // Kansas City MO
	"681": {41.26, -95.94}, // Omaha NE
	"502": {41.60, -93.61}, // Des Moines IA
	// Mountain / West
	"802": {39.74, -104.99}, // Denver CO
	"841": {40.76, -111.89}, // Salt Lake City UT
	"850": {33.45, -112.07}, // Phoenix AZ
	"857": {32.22, -110.97}, // Tucson AZ
	"871": {35.08, -106.65}, // Albuquerque NM
	"891": {36.17, -115.14}, // Las Vegas NV
	"832": {43.62, -116.21}, // Boise ID
	"591": {45.78, -108.50}, // Billings MT
	// Pacific
	"900": {34.05, -118.24}, // Los Angeles CA
	"921": {32.72, -117.16}, // San Diego CA
	"941": {37.77, -122.42}, // San Francisco CA
	"958": {38.58, -121.49}, // Sacramento CA
	"972": {45.52, -122.68}, // Portland OR
	"981": {47.61, -122.33}, // Seattle WA
	"992": {47.66, -117.43}, // Spokane WA
}

// CoordinateForZip returns the approximate coordinate for a postal code,
// bucketed by its 3-digit prefix. The second return is false when no
// mapping exists for the prefix.
func CoordinateForZip(zip string) (Coordinate, bool) {
	zip = strings.TrimSpace(zip)
	if len(zip) < 3 {
		return Coordinate{}, false
	}
	coord, ok := zipPrefixCoordinates[zip[:3]]
	return coord, ok
}

// DistanceMiles computes the great-circle distance between two coordinates
// using the haversine formula.
func DistanceMiles(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(h))
}

// DistanceBetweenZips approximates the distance between two postal codes.
// Returns +Inf when either prefix has no mapping, which de-prioritizes the
// location in nearest-warehouse ranking without failing the request.
func DistanceBetweenZips(zipA, zipB string) float64 {
	a, okA := CoordinateForZip(zipA)
	b, okB := CoordinateForZip(zipB)
	if !okA || !okB {
		return math.Inf(1)
	}
	return DistanceMiles(a, b)
}
