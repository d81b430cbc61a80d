package kernel

import (
	"errors"
	"fmt"
	"math"

	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

const (
	LatitudeMin  = -90.0
	LatitudeMax  = 90.0
	LongitudeMin = -180.0
	LongitudeMax = 180.0

	// EarthRadiusKm is the mean Earth radius used by haversine distance.
	EarthRadiusKm = 6371.0
)

// ErrLocationIsNotConstructed is returned when a Location did not come from NewLocation.
var ErrLocationIsNotConstructed = errs.NewValueIsRequiredError(
	"location must be created via NewLocation constructor")

// Location is a point on the Earth surface in decimal degrees.
type Location struct { //nolint:recvcheck //using for validation
	latitude  float64
	longitude float64
	guard     guard.ConstructorGuard
}

// NewLocation creates a Location after checking coordinate bounds.
//
// Parameters:
//   - latitude: degrees in [-90, 90]
//   - longitude: degrees in [-180, 180]
//
// Example:
//
//	penn, _ := kernel.NewLocation(40.7505, -73.9934)
func NewLocation(latitude, longitude float64) (Location, error) {
	loc := Location{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(loc.setLatitude(latitude), loc.setLongitude(longitude)); err != nil {
		return Location{}, err
	}

	return loc, nil
}

// MustNewLocation is NewLocation for literals known to be valid.
func MustNewLocation(latitude, longitude float64) Location {
	loc, err := NewLocation(latitude, longitude)
	if err != nil {
		panic(err)
	}
	return loc
}

// Validate ensures the location was created through NewLocation.
func (l Location) Validate() error {
	return l.guard.Validate(ErrLocationIsNotConstructed)
}

// Latitude returns the latitude in degrees.
func (l Location) Latitude() float64 {
	return l.latitude
}

// Longitude returns the longitude in degrees.
func (l Location) Longitude() float64 {
	return l.longitude
}

// String formats the point with six decimals.
func (l Location) String() string {
	return fmt.Sprintf("Location(%.6f,%.6f)", l.latitude, l.longitude)
}

// IsEqual compares both coordinates exactly.
func (l Location) IsEqual(other Location) bool {
	return l.latitude == other.latitude && l.longitude == other.longitude
}

// DistanceKm returns the great-circle distance to other using the haversine formula.
//
// Returns an error if either location was not constructed.
func (l Location) DistanceKm(other Location) (float64, error) {
	if err := errors.Join(l.Validate(), other.Validate()); err != nil {
		return 0, err
	}

	lat1 := toRadians(l.latitude)
	lat2 := toRadians(other.latitude)
	dLat := lat2 - lat1
	dLng := toRadians(other.longitude - l.longitude)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c, nil
}

// MoveToward returns the point reached after travelling stepKm from l toward target.
// The target itself is returned once it is within one step.
func (l Location) MoveToward(target Location, stepKm float64) (Location, error) {
	distance, err := l.DistanceKm(target)
	if err != nil {
		return Location{}, err
	}
	if stepKm <= 0 {
		return l, nil
	}
	if distance <= stepKm {
		return target, nil
	}

	fraction := stepKm / distance
	return NewLocation(
		l.latitude+(target.latitude-l.latitude)*fraction,
		l.longitude+(target.longitude-l.longitude)*fraction,
	)
}

func (l *Location) setLatitude(latitude float64) error {
	if math.IsNaN(latitude) || latitude < LatitudeMin || latitude > LatitudeMax {
		return errs.NewValueIsOutOfRangeError("latitude", latitude, LatitudeMin, LatitudeMax)
	}

	l.latitude = latitude
	return nil
}

func (l *Location) setLongitude(longitude float64) error {
	if math.IsNaN(longitude) || longitude < LongitudeMin || longitude > LongitudeMax {
		return errs.NewValueIsOutOfRangeError("longitude", longitude, LongitudeMin, LongitudeMax)
	}

	l.longitude = longitude
	return nil
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
