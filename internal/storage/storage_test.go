package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanKey(t *testing.T) {
	t.Parallel()

	got, err := CleanKey("docs.example.com/html/guide/./index.html")
	require.NoError(t, err)
	assert.Equal(t, "docs.example.com/html/guide/index.html", got)

	got, err = CleanKey(`host\markdown\a.md`)
	require.NoError(t, err)
	assert.Equal(t, "host/markdown/a.md", got)

	for _, bad := range []string{"", "  ", "/etc/passwd", "../escape", "a/../../b", "."} {
		_, err := CleanKey(bad)
		assert.Error(t, err, bad)
	}
}
