package kafka_test

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"testing"
	"time"

	robokafka "robodelivery/internal/adapters/out/kafka"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/notification"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

const topic = "notifications-test"

type PublisherTestSuite struct {
	suite.Suite
	container *kafka.KafkaContainer
	brokers   []string
}

func (suite *PublisherTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := kafka.Run(ctx,
		"confluentinc/confluent-local:7.8.0",
		kafka.WithClusterID("test-cluster"),
	)
	suite.container = container
	suite.Require().NoError(err)

	suite.brokers, err = container.Brokers(ctx)
	suite.Require().NoError(err)

	conn, err := kafkago.Dial("tcp", suite.brokers[0])
	suite.Require().NoError(err)
	defer conn.Close()

	controller, err := conn.Controller()
	suite.Require().NoError(err)
	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	suite.Require().NoError(err)
	defer controllerConn.Close()

	suite.Require().NoError(controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func (suite *PublisherTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *PublisherTestSuite) TestPublish_KeysMessageByRecipient() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	publisher := robokafka.NewPublisher(suite.brokers, topic)
	defer func() { suite.NoError(publisher.Close()) }()

	n, err := notification.NewNotification(kernel.NewUUID(), "cust-1", "Out for delivery", "Your robot is on its way",
		notification.DeliveryUpdate{OrderID: "o-1", RobotID: "r-1", Status: "robot_delivering"}, time.Now())
	suite.Require().NoError(err)

	suite.Require().NoError(publisher.Publish(ctx, "cust-1", n.Envelope()))

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   suite.brokers,
		Topic:     topic,
		Partition: 0,
		MaxWait:   500 * time.Millisecond,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	suite.Require().NoError(err)
	suite.Equal("cust-1", string(msg.Key))

	var got map[string]any
	suite.Require().NoError(json.Unmarshal(msg.Value, &got))
	suite.Equal(n.ID().String(), got["id"])
	suite.Equal("delivery_update", got["type"])
	data, ok := got["data"].(map[string]any)
	suite.Require().True(ok)
	suite.Equal("robot_delivering", data["status"])

	var typeHeader string
	for _, h := range msg.Headers {
		if h.Key == "notification-type" {
			typeHeader = string(h.Value)
		}
	}
	suite.Equal("delivery_update", typeHeader)
}

func TestPublisherTestSuite(t *testing.T) {
	suite.Run(t, new(PublisherTestSuite))
}
