package queries

import (
	"context"

	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/errs"
)

// ListRobotsQueryHandler lists the fleet for admins.
type ListRobotsQueryHandler struct {
	registry ports.RobotRegistry
}

// NewListRobotsQueryHandler creates the handler.
func NewListRobotsQueryHandler(registry ports.RobotRegistry) ListRobotsQueryHandler {
	return ListRobotsQueryHandler{registry: registry}
}

// Handle returns every robot. Non-admins get errs.ErrNotAuthorized.
func (h ListRobotsQueryHandler) Handle(ctx context.Context, query ListRobotsQuery) ([]RobotResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if !query.Principal().IsFleetAdmin() {
		return nil, errs.NewNotAuthorizedError(query.Principal().ID, "list robots")
	}

	robots, err := h.registry.List(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]RobotResponse, 0, len(robots))
	for _, r := range robots {
		resp = append(resp, NewRobotResponse(r))
	}
	return resp, nil
}
