package browser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStorageState(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid snapshot", func(t *testing.T) {
		path := filepath.Join(dir, "state.json")
		content := `{
			"cookies": [
				{"name": "user_session", "value": "abc123", "domain": "github.com", "path": "/"},
				{"name": "logged_in", "value": "yes", "domain": ".github.com", "path": "/"}
			]
		}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cookies, err := LoadStorageState(path)
		require.NoError(t, err)
		require.Len(t, cookies, 2)
		assert.Equal(t, "user_session", cookies[0].Name)
		assert.Equal(t, "abc123", cookies[0].Value)
		assert.Equal(t, ".github.com", cookies[1].Domain)
	})

	t.Run("missing file is not an error", func(t *testing.T) {
		cookies, err := LoadStorageState(filepath.Join(dir, "nope.json"))
		assert.NoError(t, err)
		assert.Empty(t, cookies)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

		_, err := LoadStorageState(path)
		assert.Error(t, err)
	})
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandHome("~/profiles/github")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "profiles/github"), got)

	got, err = expandHome("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)
}
