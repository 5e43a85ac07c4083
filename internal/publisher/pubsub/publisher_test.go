package pubsub

import (
	"context"
	"encoding/json"
	"testing"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func newFakeClient(t *testing.T) (*pubsub.Client, *pstest.Server) {
	t.Helper()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)

	client, err := pubsub.NewClient(context.Background(), "docs-project", option.WithGRPCConn(conn))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

func TestPublishSendsJSON(t *testing.T) {
	ctx := context.Background()
	client, srv := newFakeClient(t)
	_, err := client.CreateTopic(ctx, "pipeline-events")
	require.NoError(t, err)

	pub := New(client, map[string]string{"source": "docs-translator"})
	defer pub.Close()

	id, err := pub.Publish(ctx, "pipeline-events", map[string]any{"kind": "run_done", "processed": 3})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	var got map[string]any
	require.NoError(t, json.Unmarshal(msgs[0].Data, &got))
	assert.Equal(t, "run_done", got["kind"])
	assert.Equal(t, "docs-translator", msgs[0].Attributes["source"])
}

func TestPublishValidation(t *testing.T) {
	ctx := context.Background()

	_, err := New(nil, nil).Publish(ctx, "t", "x")
	require.Error(t, err)

	client, _ := newFakeClient(t)
	pub := New(client, nil)
	defer pub.Close()

	_, err = pub.Publish(ctx, "", "x")
	require.Error(t, err)

	_, err = pub.Publish(ctx, "t", func() {})
	require.Error(t, err)

	_, err = pub.Publish(ctx, "missing-topic", "x")
	require.Error(t, err)
}
