package geometry

// Region holds the calibration used to validate extracted coordinates and
// to approximate projected (UTM-like) coordinates as lat/lng. The linear
// approximation is deliberately inaccurate: it is only acceptable because
// the target region spans a few kilometers. It is not a general projection.
type Region struct {
	Name string

	// Accepted lat/lng window. Extracted points outside it are rejected.
	LatMin, LatMax float64
	LngMin, LngMax float64

	// Linear approximation anchors for projected coordinates:
	//   lat = OriginLat + (y - OriginNorthing) / MetersPerDegree
	//   lng = CentralMeridian + (x - OriginEasting) / (MetersPerDegree * LngScale)
	CentralMeridian float64
	OriginLat       float64
	OriginNorthing  float64
	OriginEasting   float64
	LngScale        float64
}

// MetersPerDegree is the approximate ground length of one degree of
// latitude.
const MetersPerDegree = 111320.0

// Calgary is the default region: UTM zone 11N, downtown-centered window.
var Calgary = Region{
	Name:            "Calgary",
	LatMin:          50.8,
	LatMax:          51.3,
	LngMin:          -114.3,
	LngMax:          -113.8,
	CentralMeridian: -117.0,
	OriginLat:       50.9,
	OriginNorthing:  5640000,
	OriginEasting:   -300000,
	LngScale:        0.7,
}

// InBounds reports whether the point falls inside the region's window.
func (r Region) InBounds(lat, lng float64) bool {
	return lat >= r.LatMin && lat <= r.LatMax && lng >= r.LngMin && lng <= r.LngMax
}

// ProjectedToLatLng converts projected x/y coordinates using the region's
// linear approximation. Points that land outside the region window are
// rejected; the caller treats that as an extraction failure.
func (r Region) ProjectedToLatLng(x, y float64) (lat, lng float64, ok bool) {
	lat = r.OriginLat + (y-r.OriginNorthing)/MetersPerDegree
	lng = r.CentralMeridian + (x-r.OriginEasting)/(MetersPerDegree*r.LngScale)

	if !r.InBounds(lat, lng) {
		return 0, 0, false
	}
	return lat, lng, true
}
