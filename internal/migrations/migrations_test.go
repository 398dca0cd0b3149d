package migrations

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedSource(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, ident, err := src.ReadUp(first)
	require.NoError(t, err)
	defer up.Close()
	assert.Equal(t, "init", ident)

	body, err := io.ReadAll(up)
	require.NoError(t, err)
	schema := string(body)

	for _, table := range []string{"users", "songs", "lists", "list_songs", "messages", "comments", "favorite_lists", "favorite_messages"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
	assert.Contains(t, schema, "UNIQUE (name, artist, link)")
	assert.Contains(t, schema, "ON DELETE SET NULL")
	assert.Equal(t, 1, strings.Count(schema, "username        TEXT        NOT NULL UNIQUE"))
}

func TestEmbeddedSourceHasDown(t *testing.T) {
	src, err := Source()
	require.NoError(t, err)
	defer src.Close()

	down, _, err := src.ReadDown(1)
	require.NoError(t, err)
	defer down.Close()

	body, err := io.ReadAll(down)
	require.NoError(t, err)
	assert.Contains(t, string(body), "DROP TABLE IF EXISTS users;")
}
