package filter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carelog/internal/phi/pattern"
)

func TestApplyNameLike(t *testing.T) {
	allow := Default()

	t.Run("ward vocabulary suppresses the match", func(t *testing.T) {
		kept := allow.Apply(pattern.DetectorNameLike, []string{"Room Jane"})
		assert.Empty(t, kept)
	})

	t.Run("baby nickname marker suppresses the match", func(t *testing.T) {
		kept := allow.Apply(pattern.DetectorNameLike, []string{"Baby Jane Smith"})
		assert.Empty(t, kept)
	})

	t.Run("real name pair passes through", func(t *testing.T) {
		kept := allow.Apply(pattern.DetectorNameLike, []string{"Jane Smith"})
		assert.Equal(t, []string{"Jane Smith"}, kept)
	})

	t.Run("mixed matches keep only unlisted ones", func(t *testing.T) {
		kept := allow.Apply(pattern.DetectorNameLike, []string{"Ward Two", "Jane Smith", "Bed Three"})
		assert.Equal(t, []string{"Jane Smith"}, kept)
	})
}

func TestApplyOtherDetectorsUntouched(t *testing.T) {
	allow := Default()
	matches := []string{"Room 555-123-4567"}
	kept := allow.Apply(pattern.DetectorPhone, matches)
	assert.Equal(t, matches, kept)
}

func TestLoad(t *testing.T) {
	t.Run("empty path yields defaults", func(t *testing.T) {
		allow, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default().NameTokens, allow.NameTokens)
	})

	t.Run("missing file yields defaults", func(t *testing.T) {
		allow, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, Default().NameTokens, allow.NameTokens)
	})

	t.Run("file overrides vocabulary", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "allow.yaml")
		require.NoError(t, os.WriteFile(path, []byte("name_tokens: [Nursery, Bay]\n"), 0o600))

		allow, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"Nursery", "Bay"}, allow.NameTokens)

		kept := allow.Apply(pattern.DetectorNameLike, []string{"Nursery Two", "Jane Smith"})
		assert.Equal(t, []string{"Jane Smith"}, kept)
	})

	t.Run("malformed file errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "allow.yaml")
		require.NoError(t, os.WriteFile(path, []byte("name_tokens: {broken"), 0o600))
		_, err := Load(path)
		assert.Error(t, err)
	})
}
