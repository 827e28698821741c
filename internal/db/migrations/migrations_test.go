package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	names, err := Names()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "sql/001_create_links.sql", names[0])

	body, err := fs.ReadFile(files, names[0])
	require.NoError(t, err)

	schema := string(body)
	assert.Contains(t, schema, "CONSTRAINT links_url_unique UNIQUE (url)")
	assert.Contains(t, schema, "CONSTRAINT links_short_key_unique UNIQUE (short_key)")
	assert.True(t, strings.Contains(schema, "---- create above / drop below ----"),
		"migration must carry a tern down section")
}
