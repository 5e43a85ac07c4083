package gcs

import (
	"context"
	"testing"

	gcstorage "cloud.google.com/go/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestClient(t *testing.T) *gcstorage.Client {
	t.Helper()
	client, err := gcstorage.NewClient(context.Background(), option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	_, err := New(nil, Config{Bucket: "b"})
	require.Error(t, err)

	client := newTestClient(t)
	_, err = New(client, Config{})
	require.Error(t, err)

	_, err = New(client, Config{Bucket: "b", Prefix: "../up"})
	require.Error(t, err)
}

func TestObjectName(t *testing.T) {
	t.Parallel()

	client := newTestClient(t)
	store, err := New(client, Config{Bucket: "docs", Prefix: "output/"})
	require.NoError(t, err)

	name, err := store.ObjectName("docs.example.com/sitemap.json")
	require.NoError(t, err)
	assert.Equal(t, "output/docs.example.com/sitemap.json", name)

	bare, err := New(client, Config{Bucket: "docs"})
	require.NoError(t, err)
	name, err = bare.ObjectName("a/b.md")
	require.NoError(t, err)
	assert.Equal(t, "a/b.md", name)

	_, err = store.ObjectName("/abs")
	assert.Error(t, err)
}
