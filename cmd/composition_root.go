package cmd

import (
	"fmt"
	"log/slog"
	"time"

	api "robodelivery/internal/adapters/in/http"
	"robodelivery/internal/adapters/out/postgres"
	"robodelivery/internal/adapters/out/postgres/orderrepo"
	"robodelivery/internal/adapters/out/postgres/robotrepo"
	"robodelivery/internal/adapters/out/simulation"
	"robodelivery/internal/core/application/notify"
	appotp "robodelivery/internal/core/application/otp"
	"robodelivery/internal/core/application/usecases/commands"
	"robodelivery/internal/core/application/usecases/queries"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/jobs"
	"robodelivery/internal/telemetry"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

const (
	assignmentBatch = 50
	republishBatch  = 100
)

// CompositionRoot owns the long-lived core components and builds handlers
// on top of them.
type CompositionRoot struct {
	cfg    Config
	logger *slog.Logger

	gormDB        *gorm.DB
	uowFactory    *postgres.GormUnitOfWorkFactory
	registry      ports.RobotRegistry
	notifications ports.NotificationRepository
	transport     ports.NotificationTransport
	metrics       *telemetry.Metrics

	dispatcher *notify.Dispatcher
	issuer     *appotp.Issuer
	jobManager *jobs.JobManager
}

// NewCompositionRoot wires the core. notifications is the selected inbox store
// and transports are the live channels notifications are pushed to.
func NewCompositionRoot(
	cfg Config,
	gormDB *gorm.DB,
	notifications ports.NotificationRepository,
	transports []ports.NotificationTransport,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:           cfg,
		logger:        logger,
		gormDB:        gormDB,
		uowFactory:    postgres.NewGormUnitOfWorkFactory(gormDB, cfg.StoreTimeout),
		notifications: notifications,
		metrics:       metrics,
	}

	switch cfg.RobotRegistry {
	case RegistrySimulation:
		c.registry = simulation.NewRegistry(cfg.MinBattery)
	default:
		c.registry = robotrepo.NewFleetRegistry(gormDB, cfg.StoreTimeout, cfg.MinBattery)
	}

	switch len(transports) {
	case 0:
		c.transport = notify.NoopTransport{}
	case 1:
		c.transport = transports[0]
	default:
		c.transport = notify.Fanout(transports)
	}

	c.dispatcher = notify.NewDispatcher(notifications, c.transport, notify.Config{
		Workers:        cfg.OutboxWorkers,
		BufferSize:     cfg.OutboxBuffer,
		StoreTimeout:   cfg.StoreTimeout,
		PublishTimeout: cfg.PublishTimeout,
	}, logger, notify.WithMetrics(metrics))

	issuer, err := appotp.NewIssuer(appotp.NewBcryptHasher(cfg.OTPHashCost), cfg.OTPDigits, logger, appotp.WithMetrics(metrics))
	if err != nil {
		return nil, fmt.Errorf("otp issuer: %w", err)
	}
	c.issuer = issuer

	jobManager, err := c.newJobManager()
	if err != nil {
		return nil, err
	}
	c.jobManager = jobManager

	return c, nil
}

// Start launches the notification workers and the scheduled jobs.
func (c *CompositionRoot) Start() error {
	c.dispatcher.Start()
	if err := c.jobManager.StartAll(); err != nil {
		c.dispatcher.Stop()
		return err
	}
	return nil
}

// Stop halts the jobs first so they stop producing work, then drains the outbox.
func (c *CompositionRoot) Stop() {
	c.jobManager.StopAll()
	c.dispatcher.Stop()
}

// Registry returns the fleet registry shared by every handler.
func (c *CompositionRoot) Registry() ports.RobotRegistry {
	return c.registry
}

// Handlers wires every use case for the HTTP server.
func (c *CompositionRoot) Handlers() api.Handlers {
	orders := orderrepo.NewGormOrderRepository(c.gormDB, c.cfg.StoreTimeout)

	return api.Handlers{
		CreateOrder:       c.CreateCreateOrderCommandHandler(),
		ApproveOrder:      c.CreateApproveOrderCommandHandler(),
		RejectOrder:       commands.NewRejectOrderCommandHandler(c.commandsUoWFactory(), c.dispatcher),
		CancelOrder:       commands.NewCancelOrderCommandHandler(c.commandsUoWFactory(), c.dispatcher),
		AssignRobot:       c.CreateAssignRobotCommandHandler(),
		AdvanceRobot:      c.CreateAdvanceRobotCommandHandler(),
		AbortOrder:        commands.NewAbortOrderCommandHandler(c.commandsUoWFactory(), c.registry, c.dispatcher, c.logger),
		ConfirmDelivery:   commands.NewConfirmDeliveryCommandHandler(c.commandsUoWFactory(), c.registry, c.issuer, c.dispatcher, c.logger),
		ResendDeliveryOTP: commands.NewResendDeliveryOTPCommandHandler(c.commandsUoWFactory(), c.issuer, c.codeSender(), c.deliveryCodePolicy(), c.logger),

		RegisterRobot:        commands.NewRegisterRobotCommandHandler(c.registry, c.cfg.FleetSpeedKmh),
		SetRobotAvailability: commands.NewSetRobotAvailabilityCommandHandler(c.registry),
		UpdateRobotTelemetry: commands.NewUpdateRobotTelemetryCommandHandler(c.registry),
		MarkNotificationRead: commands.NewMarkNotificationReadCommandHandler(c.notifications),
		GetOrder:             queries.NewGetOrderQueryHandler(orders),
		ListOrders:           queries.NewListOrdersQueryHandler(orders),
		ListRobots:           queries.NewListRobotsQueryHandler(c.registry),
		ListNotifications:    queries.NewListNotificationsQueryHandler(c.notifications),
	}
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.commandsUoWFactory(), c.dispatcher, c.logger)
}

func (c *CompositionRoot) CreateAssignRobotCommandHandler() commands.AssignRobotCommandHandler {
	return commands.NewAssignRobotCommandHandler(c.commandsUoWFactory(), c.registry, c.dispatcher, c.metrics, c.logger)
}

// CreateApproveOrderCommandHandler attaches the assigner only when AutoAssignOnApprove is set.
func (c *CompositionRoot) CreateApproveOrderCommandHandler() commands.ApproveOrderCommandHandler {
	if !c.cfg.AutoAssignOnApprove {
		return commands.NewApproveOrderCommandHandler(c.commandsUoWFactory(), c.dispatcher, nil, c.logger)
	}
	return commands.NewApproveOrderCommandHandler(c.commandsUoWFactory(), c.dispatcher, c.CreateAssignRobotCommandHandler(), c.logger)
}

func (c *CompositionRoot) CreateAdvanceRobotCommandHandler() commands.AdvanceRobotCommandHandler {
	return commands.NewAdvanceRobotCommandHandler(c.commandsUoWFactory(), c.registry, c.issuer,
		c.codeSender(), c.deliveryCodePolicy(), c.dispatcher, c.logger)
}

// CreateAssignPendingOrdersCommandHandler backs the robot assignment job.
func (c *CompositionRoot) CreateAssignPendingOrdersCommandHandler() commands.AssignPendingOrdersCommandHandler {
	return commands.NewAssignPendingOrdersCommandHandler(c.commandsUoWFactory(), c.registry, c.CreateAssignRobotCommandHandler(), c.logger)
}

func (c *CompositionRoot) CreateMoveRobotsCommandHandler() commands.MoveRobotsCommandHandler {
	return commands.NewMoveRobotsCommandHandler(c.commandsUoWFactory(), c.registry, c.logger)
}

func (c *CompositionRoot) newJobManager() (*jobs.JobManager, error) {
	entries := []jobs.Entry{
		{
			Schedule: c.cfg.AssignmentSchedule,
			Job:      jobs.NewRobotAssignmentJob(c.CreateAssignPendingOrdersCommandHandler(), assignmentBatch, c.logger),
		},
		{
			Schedule: c.cfg.RepublishSchedule,
			Job:      jobs.NewNotificationRepublishJob(c.dispatcher, c.cfg.RepublishMaxAttempts, republishBatch, c.logger),
		},
	}

	if c.cfg.SimulateMovement {
		tick, err := scheduleInterval(c.cfg.MovementSchedule)
		if err != nil {
			return nil, fmt.Errorf("movement schedule: %w", err)
		}
		entries = append(entries, jobs.Entry{
			Schedule: c.cfg.MovementSchedule,
			Job:      jobs.NewRobotMovementJob(c.CreateMoveRobotsCommandHandler(), tick, c.logger),
		})
	}

	return jobs.NewJobManager(c.logger, 0, entries...), nil
}

func (c *CompositionRoot) codeSender() ports.CodeSender {
	return notify.NewTransportCodeSender(c.transport)
}

func (c *CompositionRoot) deliveryCodePolicy() commands.DeliveryCodePolicy {
	policy := commands.DefaultDeliveryCodePolicy()
	policy.TTL = c.cfg.OTPTTL
	if c.cfg.OTPTrigger == order.RobotPickingUp.String() {
		policy.Trigger = order.RobotPickingUp
	}
	return policy
}

func (c *CompositionRoot) commandsUoWFactory() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

// scheduleInterval is the gap between two consecutive firings of expr.
func scheduleInterval(expr string) (time.Duration, error) {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(expr)
	if err != nil {
		return 0, err
	}
	first := schedule.Next(time.Now())
	return schedule.Next(first).Sub(first), nil
}

// FuncUoWFactory adapts a function to commands.UoWFactory.
type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
