package services

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/pkg/errs"
)

// RobotDispatcher selects robots for pickups. It never mutates the robots it inspects.
//
// Selection rules:
//   - the robot is idle and charged to at least minBattery percent
//   - the order's weight and volume fit in the robot's free capacity
//   - the closest robot by great-circle distance wins
//   - distances are compared at millimetre resolution, equal ones resolve to the lowest robot id
type RobotDispatcher struct {
	minBattery int
}

// NewRobotDispatcher creates a dispatcher that skips robots below minBattery percent.
//
// Example:
//
//	dispatcher := services.NewRobotDispatcher(cfg.Dispatch.MinBattery)
//	best, err := dispatcher.Nearest(pickup, o.Size(), fleet)
func NewRobotDispatcher(minBattery int) RobotDispatcher {
	return RobotDispatcher{minBattery: minBattery}
}

// Candidate is a robot together with its distance to the pickup point.
type Candidate struct {
	Robot      *robot.Robot
	DistanceKm float64

	distanceMm int64
}

// Nearest returns the qualifying robot closest to point.
//
// Parameters:
//   - point: pickup location
//   - need: payload the robot must have free room for
//   - robots: fleet snapshot to choose from
//
// Returns an error wrapping errs.ErrNoRobotAvailable when no robot qualifies.
func (d RobotDispatcher) Nearest(point kernel.Location, need kernel.Payload, robots []*robot.Robot) (Candidate, error) {
	ranked, err := d.Rank(point, need, robots)
	if err != nil {
		return Candidate{}, err
	}
	if len(ranked) == 0 {
		return Candidate{}, fmt.Errorf("%w near %s", errs.ErrNoRobotAvailable, point)
	}
	return ranked[0], nil
}

// Rank returns every qualifying robot ordered by distance, then id.
func (d RobotDispatcher) Rank(point kernel.Location, need kernel.Payload, robots []*robot.Robot) ([]Candidate, error) {
	if err := point.Validate(); err != nil {
		return nil, err
	}

	ranked := make([]Candidate, 0, len(robots))
	for _, r := range robots {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if !r.IsAvailable(need, d.minBattery) {
			continue
		}

		distance, err := r.Location().DistanceKm(point)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, Candidate{
			Robot:      r,
			DistanceKm: distance,
			distanceMm: int64(math.Round(distance * 1e6)),
		})
	}

	slices.SortFunc(ranked, compareCandidates)
	return ranked, nil
}

func compareCandidates(a, b Candidate) int {
	if c := cmp.Compare(a.distanceMm, b.distanceMm); c != 0 {
		return c
	}
	return a.Robot.ID().Compare(b.Robot.ID())
}
