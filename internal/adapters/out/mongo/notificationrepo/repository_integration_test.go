package notificationrepo_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"robodelivery/internal/adapters/out/mongo/notificationrepo"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/notification"
	"robodelivery/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoNotificationRepositoryTestSuite struct {
	suite.Suite
	container  testcontainers.Container
	client     *mongo.Client
	db         *mongo.Database
	repository *notificationrepo.MongoNotificationRepository
}

func (suite *MongoNotificationRepositoryTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	suite.container = container
	suite.Require().NoError(err)

	host, err := container.Host(ctx)
	suite.Require().NoError(err)
	port, err := container.MappedPort(ctx, "27017")
	suite.Require().NoError(err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(fmt.Sprintf("mongodb://%s:%s", host, port.Port())))
	suite.Require().NoError(err)
	suite.client = client
	suite.db = client.Database("robodelivery_test")
}

func (suite *MongoNotificationRepositoryTestSuite) SetupTest() {
	ctx := context.Background()
	suite.Require().NoError(suite.db.Collection(notificationrepo.CollectionName).Drop(ctx))
	suite.repository = notificationrepo.NewMongoNotificationRepository(suite.db, 3*time.Second)
	suite.Require().NoError(suite.repository.EnsureIndexes(ctx))
}

func (suite *MongoNotificationRepositoryTestSuite) TearDownSuite() {
	ctx := context.Background()
	if suite.client != nil {
		_ = suite.client.Disconnect(ctx)
	}
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(ctx))
	}
}

func (suite *MongoNotificationRepositoryTestSuite) add(recipientID string, createdAt time.Time) *notification.Notification {
	n, err := notification.NewNotification(kernel.NewUUID(), recipientID, "Order approved", "Your order was approved",
		notification.OrderUpdate{OrderID: "o-1", PreviousStatus: "pending", Status: "vendor_approved"},
		createdAt.UTC().Truncate(time.Millisecond))
	suite.Require().NoError(err)
	suite.Require().NoError(suite.repository.Add(context.Background(), n))
	return n
}

func (suite *MongoNotificationRepositoryTestSuite) TestAddGetAndDuplicate() {
	ctx := context.Background()
	n := suite.add("cust-1", time.Now())

	got, err := suite.repository.Get(ctx, n.ID())
	suite.Require().NoError(err)
	suite.True(n.CreatedAt().Equal(got.CreatedAt()))
	payload, ok := got.Payload().(notification.OrderUpdate)
	suite.Require().True(ok)
	suite.Equal("vendor_approved", payload.Status)

	err = suite.repository.Add(ctx, n)
	suite.Require().ErrorIs(err, errs.ErrConflict)

	_, err = suite.repository.Get(ctx, kernel.NewUUID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *MongoNotificationRepositoryTestSuite) TestInboxAndOutbox() {
	ctx := context.Background()
	now := time.Now()
	older := suite.add("cust-1", now.Add(-time.Minute))
	newer := suite.add("cust-1", now)
	suite.add("cust-2", now)

	inbox, err := suite.repository.ListByRecipient(ctx, "cust-1", false, 10)
	suite.Require().NoError(err)
	suite.Require().Len(inbox, 2)
	suite.Equal(newer.ID(), inbox[0].ID())

	older.MarkRead()
	older.MarkPublished(now)
	suite.Require().NoError(suite.repository.Update(ctx, older))

	unread, err := suite.repository.ListByRecipient(ctx, "cust-1", true, 10)
	suite.Require().NoError(err)
	suite.Require().Len(unread, 1)
	suite.Equal(newer.ID(), unread[0].ID())

	pending, err := suite.repository.ListUnpublished(ctx, 3, 10)
	suite.Require().NoError(err)
	suite.Len(pending, 2)
}

func TestMongoNotificationRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(MongoNotificationRepositoryTestSuite))
}
