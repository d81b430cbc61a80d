package notificationrepo_test

import (
	"context"
	"testing"
	"time"

	"robodelivery/internal/adapters/out/postgres/notificationrepo"
	"robodelivery/internal/adapters/out/postgres/pgtest"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/notification"
	"robodelivery/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
)

type NotificationRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *notificationrepo.GormNotificationRepository
}

func (suite *NotificationRepositoryIntegrationTestSuite) SetupSuite() {
	container, db, _, err := pgtest.Start(context.Background())
	suite.container = container
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&notificationrepo.NotificationDTO{}))
}

func (suite *NotificationRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE notifications").Error)
	suite.repository = notificationrepo.NewGormNotificationRepository(suite.db, 3*time.Second)
}

func (suite *NotificationRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *NotificationRepositoryIntegrationTestSuite) add(recipientID string, createdAt time.Time) *notification.Notification {
	eta := int64(120)
	n, err := notification.NewNotification(kernel.NewUUID(), recipientID, "Robot assigned", "A robot is on its way",
		notification.DeliveryUpdate{OrderID: "o-1", RobotID: "r-1", Status: "robot_assigned", ETASeconds: &eta},
		createdAt.UTC().Truncate(time.Microsecond))
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.Add(context.Background(), n))
	return n
}

func (suite *NotificationRepositoryIntegrationTestSuite) TestAddAndGet_KeepsPayloadVariant() {
	n := suite.add("cust-1", time.Now())

	got, err := suite.repository.Get(context.Background(), n.ID())
	suite.Require().NoError(err)
	suite.Equal(notification.TypeDeliveryUpdate, got.Type())

	payload, ok := got.Payload().(notification.DeliveryUpdate)
	suite.Require().True(ok)
	suite.Equal("r-1", payload.RobotID)
	suite.Require().NotNil(payload.ETASeconds)
	suite.Equal(int64(120), *payload.ETASeconds)
	suite.Nil(got.PublishedAt())
}

func (suite *NotificationRepositoryIntegrationTestSuite) TestListByRecipient_NewestFirstAndUnreadFilter() {
	ctx := context.Background()
	now := time.Now()
	older := suite.add("cust-1", now.Add(-time.Minute))
	newer := suite.add("cust-1", now)
	suite.add("cust-2", now)

	all, err := suite.repository.ListByRecipient(ctx, "cust-1", false, 10)
	suite.Require().NoError(err)
	suite.Require().Len(all, 2)
	suite.Equal(newer.ID(), all[0].ID())

	older.MarkRead()
	suite.Require().NoError(suite.repository.Update(ctx, older))

	unread, err := suite.repository.ListByRecipient(ctx, "cust-1", true, 10)
	suite.Require().NoError(err)
	suite.Require().Len(unread, 1)
	suite.Equal(newer.ID(), unread[0].ID())
}

func (suite *NotificationRepositoryIntegrationTestSuite) TestListUnpublished_RespectsAttempts() {
	ctx := context.Background()
	now := time.Now()
	published := suite.add("cust-1", now.Add(-2*time.Minute))
	failing := suite.add("cust-1", now.Add(-time.Minute))
	exhausted := suite.add("cust-1", now)

	published.MarkPublished(now)
	suite.Require().NoError(suite.repository.Update(ctx, published))

	failing.RecordPublishFailure()
	suite.Require().NoError(suite.repository.Update(ctx, failing))

	for range 3 {
		exhausted.RecordPublishFailure()
	}
	suite.Require().NoError(suite.repository.Update(ctx, exhausted))

	pending, err := suite.repository.ListUnpublished(ctx, 3, 10)
	suite.Require().NoError(err)
	suite.Require().Len(pending, 1)
	suite.Equal(failing.ID(), pending[0].ID())
	suite.Equal(1, pending[0].PublishAttempts())
}

func (suite *NotificationRepositoryIntegrationTestSuite) TestUpdate_Missing() {
	n, err := notification.NewNotification(kernel.NewUUID(), "cust-1", "t", "m",
		notification.System{Message: "hello"}, time.Now())
	suite.Require().NoError(err)

	err = suite.repository.Update(context.Background(), n)
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func TestNotificationRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(NotificationRepositoryIntegrationTestSuite))
}
