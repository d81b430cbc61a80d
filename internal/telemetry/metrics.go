package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "robodelivery"

// InitMeterProvider installs a Prometheus-backed global MeterProvider and
// returns the /metrics handler and a shutdown function.
func InitMeterProvider(serviceName, serviceVersion string) (http.Handler, func(context.Context) error, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(newResource(serviceName, serviceVersion)),
	)
	otel.SetMeterProvider(mp)

	return promhttp.Handler(), mp.Shutdown, nil
}

// Metrics holds the counters of the orchestration core.
// A nil *Metrics records nothing.
type Metrics struct {
	transitions      metric.Int64Counter
	claims           metric.Int64Counter
	otpVerifications metric.Int64Counter
	publishes        metric.Int64Counter
}

// NewMetrics registers the counters on the global meter provider. Instruments
// created before InitMeterProvider forward to it once installed.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	transitions, err := meter.Int64Counter("robodelivery.order.transitions",
		metric.WithDescription("Order status transitions committed"))
	if err != nil {
		return nil, err
	}
	claims, err := meter.Int64Counter("robodelivery.robot.claims",
		metric.WithDescription("Robot claim attempts by outcome"))
	if err != nil {
		return nil, err
	}
	otpVerifications, err := meter.Int64Counter("robodelivery.otp.verifications",
		metric.WithDescription("Delivery code verifications by outcome"))
	if err != nil {
		return nil, err
	}
	publishes, err := meter.Int64Counter("robodelivery.notification.publishes",
		metric.WithDescription("Notification transport publishes by outcome"))
	if err != nil {
		return nil, err
	}

	return &Metrics{
		transitions:      transitions,
		claims:           claims,
		otpVerifications: otpVerifications,
		publishes:        publishes,
	}, nil
}

// OrderTransition counts one order status change. A nil Metrics records nothing.
func (m *Metrics) OrderTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RobotClaim counts a claim attempt by outcome.
func (m *Metrics) RobotClaim(ctx context.Context, won bool) {
	if m == nil {
		return
	}
	m.claims.Add(ctx, 1, metric.WithAttributes(outcome(won)))
}

// OTPVerification counts a code check by outcome.
func (m *Metrics) OTPVerification(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	m.otpVerifications.Add(ctx, 1, metric.WithAttributes(outcome(ok)))
}

// NotificationPublish counts a transport publish by outcome.
func (m *Metrics) NotificationPublish(ctx context.Context, ok bool) {
	if m == nil {
		return
	}
	m.publishes.Add(ctx, 1, metric.WithAttributes(outcome(ok)))
}

func outcome(ok bool) attribute.KeyValue {
	if ok {
		return attribute.String("outcome", "ok")
	}
	return attribute.String("outcome", "failed")
}
