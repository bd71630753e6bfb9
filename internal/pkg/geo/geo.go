package geo

import (
	"errors"
	"fmt"
	"math"
)

const earthRadiusMeters = 6371000

// DefaultMaxDistanceMeters is the geofence radius around a branch.
const DefaultMaxDistanceMeters = 100.0

var (
	ErrLowAccuracy      = errors.New("location accuracy is too low")
	ErrTooFarFromBranch = errors.New("you are too far from the branch")
)

// AccuracyError reports a GPS fix whose accuracy radius exceeds the allowed maximum.
type AccuracyError struct {
	Accuracy float64
	Max      float64
}

func (e *AccuracyError) Error() string {
	return fmt.Sprintf("location accuracy is too low: %.0fm reported, at most %.0fm allowed", e.Accuracy, e.Max)
}

func (e *AccuracyError) Unwrap() error { return ErrLowAccuracy }

// DistanceError reports a check-in position outside the branch geofence.
type DistanceError struct {
	Distance float64
	Max      float64
}

func (e *DistanceError) Error() string {
	return fmt.Sprintf("you are %.0fm from the branch, %.0fm beyond the %.0fm limit", e.Distance, e.Distance-e.Max, e.Max)
}

func (e *DistanceError) Unwrap() error { return ErrTooFarFromBranch }

// DistanceMeters returns the haversine great-circle distance between two points in meters.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	lat1Rad := toRadians(lat1)
	lat2Rad := toRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// ValidateCheckIn gates a check-in position. Accuracy is checked before distance.
func ValidateCheckIn(userLat, userLon, accuracy, branchLat, branchLon, maxAccuracy, maxDistance float64) error {
	if accuracy > maxAccuracy {
		return &AccuracyError{Accuracy: accuracy, Max: maxAccuracy}
	}

	distance := DistanceMeters(userLat, userLon, branchLat, branchLon)
	if distance > maxDistance {
		return &DistanceError{Distance: distance, Max: maxDistance}
	}

	return nil
}

func toRadians(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
