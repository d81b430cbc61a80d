package commands

import (
	"context"
	"log/slog"
	"time"

	appotp "robodelivery/internal/core/application/otp"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/otp"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/core/ports"
)

const sideEffectTimeout = 3 * time.Second

type otpIssuer interface {
	Issue(ctx context.Context, repo ports.OTPRepository, subjectID string, purpose otp.Purpose, ttl time.Duration) (appotp.Issued, error)
	Verify(ctx context.Context, repo ports.OTPRepository, subjectID string, purpose otp.Purpose, candidate string) (bool, error)
}

type claimRecorder interface {
	RobotClaim(ctx context.Context, won bool)
}

type noopClaimRecorder struct{}

func (noopClaimRecorder) RobotClaim(context.Context, bool) {}

// DeliveryCodePolicy decides when a delivery confirmation code is issued and
// how long it stays valid.
type DeliveryCodePolicy struct {
	// Trigger is the order status whose entry issues the code:
	// order.RobotDelivering or order.RobotPickingUp.
	Trigger order.Status
	TTL     time.Duration
}

// DefaultDeliveryCodePolicy issues the code when the robot starts delivering
// and keeps it valid for 30 minutes.
func DefaultDeliveryCodePolicy() DeliveryCodePolicy {
	return DeliveryCodePolicy{Trigger: order.RobotDelivering, TTL: 30 * time.Minute}
}

// detached keeps request values but survives the caller's cancellation so a
// compensation or notification after commit is not cut short.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
}

// advanceRobot moves the robot after its order has committed. A robot left at
// assigned by an earlier failed step is walked through picking_up first.
// Failures are logged, never returned.
func advanceRobot(
	ctx context.Context,
	registry ports.RobotRegistry,
	logger *slog.Logger,
	robotID, orderID kernel.UUID,
	next robot.Status,
) {
	ctx, cancel := detached(ctx)
	defer cancel()

	steps := []robot.Status{next}
	if next == robot.Delivering {
		if current, err := registry.Get(ctx, robotID); err == nil && current.Status() == robot.Assigned {
			steps = []robot.Status{robot.PickingUp, robot.Delivering}
		}
	}

	for _, step := range steps {
		if err := registry.Advance(ctx, robotID, orderID, step); err != nil {
			logger.ErrorContext(ctx, "failed to advance robot",
				"robot_id", robotID.String(), "order_id", orderID.String(), "status", step.String(), "error", err)
			return
		}
	}
}

// releaseRobot is best effort: a failure is logged, never returned.
func releaseRobot(ctx context.Context, registry ports.RobotRegistry, logger *slog.Logger, robotID, orderID kernel.UUID) {
	ctx, cancel := detached(ctx)
	defer cancel()

	if err := registry.Release(ctx, robotID, orderID); err != nil {
		logger.ErrorContext(ctx, "failed to release robot",
			"robot_id", robotID.String(), "order_id", orderID.String(), "error", err)
	}
}

func sendDeliveryCode(
	ctx context.Context,
	sender ports.CodeSender,
	logger *slog.Logger,
	o *order.Order,
	issued appotp.Issued,
) {
	ctx, cancel := detached(ctx)
	defer cancel()

	err := sender.SendCode(ctx, o.CustomerID(), o.ID().String(), otp.PurposeDeliveryConfirmation, issued.Code, issued.ExpiresAt)
	if err != nil {
		logger.ErrorContext(ctx, "failed to send delivery code",
			"order_id", o.ID().String(), "recipient_id", o.CustomerID(), "error", err)
	}
}
