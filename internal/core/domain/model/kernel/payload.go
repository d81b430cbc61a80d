package kernel

import (
	"errors"
	"fmt"
	"math"

	"robodelivery/internal/pkg/errs"
)

// payloadTolerance absorbs float rounding when summed line items meet a
// capacity exactly (0.4 + 0.2 against 0.6).
const payloadTolerance = 1e-9

// Payload is a weight and volume pair. It describes what an order needs
// carried, what a robot can carry and what it is carrying right now.
//
// The zero value is an empty payload and is valid.
type Payload struct {
	weightKg float64
	volumeL  float64
}

// NewPayload creates a Payload from non-negative weight (kg) and volume (litres).
//
// Example:
//
//	box, _ := kernel.NewPayload(2.5, 12)
func NewPayload(weightKg, volumeL float64) (Payload, error) {
	var errList []error
	if math.IsNaN(weightKg) || math.IsInf(weightKg, 0) || weightKg < 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("weightKg", weightKg, 0, "unbounded"))
	}
	if math.IsNaN(volumeL) || math.IsInf(volumeL, 0) || volumeL < 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("volumeL", volumeL, 0, "unbounded"))
	}
	if err := errors.Join(errList...); err != nil {
		return Payload{}, err
	}
	return Payload{weightKg: weightKg, volumeL: volumeL}, nil
}

// MustNewPayload is NewPayload for literals known to be valid.
func MustNewPayload(weightKg, volumeL float64) Payload {
	p, err := NewPayload(weightKg, volumeL)
	if err != nil {
		panic(err)
	}
	return p
}

// WeightKg and VolumeL return the two dimensions.
func (p Payload) WeightKg() float64 { return p.weightKg }
func (p Payload) VolumeL() float64  { return p.volumeL }

// IsZero reports whether both dimensions are zero.
func (p Payload) IsZero() bool {
	return p.weightKg == 0 && p.volumeL == 0
}

// Add returns the combined weight and volume.
func (p Payload) Add(other Payload) Payload {
	return Payload{weightKg: p.weightKg + other.weightKg, volumeL: p.volumeL + other.volumeL}
}

// Sub removes other from p, flooring each dimension at zero.
func (p Payload) Sub(other Payload) Payload {
	return Payload{
		weightKg: math.Max(0, p.weightKg-other.weightKg),
		volumeL:  math.Max(0, p.volumeL-other.volumeL),
	}
}

// Scale multiplies both dimensions by n.
func (p Payload) Scale(n int) Payload {
	return Payload{weightKg: p.weightKg * float64(n), volumeL: p.volumeL * float64(n)}
}

// FitsIn reports whether p fits in room on both dimensions.
func (p Payload) FitsIn(room Payload) bool {
	return p.weightKg <= room.weightKg+payloadTolerance && p.volumeL <= room.volumeL+payloadTolerance
}

// String formats the payload as "1.500kg/3.000L".
func (p Payload) String() string {
	return fmt.Sprintf("%.3fkg/%.3fL", p.weightKg, p.volumeL)
}
