package pubsub

import (
	"context"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"cloud.google.com/go/pubsub/v2/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/angelmondragon/tradeflow-backend/pkg/config"
)

const testProject = "tradeflow-test"

func newFakeClient(t *testing.T, cfg config.PubSubConfig, createTopic bool) (*Client, error) {
	t.Helper()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	client, err := NewClient(context.Background(), config.GCPConfig{ProjectID: testProject}, cfg, nil, option.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	t.Cleanup(func() { _ = client.Close() })

	if createTopic {
		_, err := client.client.TopicAdminClient.CreateTopic(context.Background(), &pubsubpb.Topic{
			Name: client.topicResourceName(cfg.OrdersTopic),
		})
		require.NoError(t, err)
	}
	return client, nil
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{}, nil)
	assert.ErrorIs(t, err, errProjectIDRequired)
}

func TestPingChecksOrdersTopic(t *testing.T) {
	client, err := newFakeClient(t, config.PubSubConfig{OrdersTopic: "orders"}, true)
	require.NoError(t, err)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestPingFailsWhenTopicMissing(t *testing.T) {
	client, err := newFakeClient(t, config.PubSubConfig{OrdersTopic: "orders"}, false)
	require.NoError(t, err)
	assert.Error(t, client.Ping(context.Background()))
}

func TestOrdersPublisherPublishes(t *testing.T) {
	client, err := newFakeClient(t, config.PubSubConfig{OrdersTopic: "orders"}, true)
	require.NoError(t, err)

	pub := client.OrdersPublisher()
	require.NotNil(t, pub)
	defer pub.Stop()

	id, err := pub.Publish(context.Background(), &gcppubsub.Message{Data: []byte(`{"ok":true}`)}).Get(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestResourceNames(t *testing.T) {
	c := &Client{projectID: "p"}
	assert.Equal(t, "projects/p/topics/t", c.topicResourceName("t"))
	assert.Equal(t, "projects/x/topics/t", c.topicResourceName("projects/x/topics/t"))
	assert.Equal(t, "projects/p/topics/t", c.topicResourceName(" t "))
	assert.Equal(t, "", c.topicResourceName(""))

	var nilClient *Client
	assert.Nil(t, nilClient.Publisher("t"))
	assert.NoError(t, nilClient.Close())
}
