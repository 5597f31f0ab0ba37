package r2manager_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saifulislam80/r2-manager/pkg/r2manager"
)

func TestNormalizePrefix(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		expected string
	}{
		{"empty", "", ""},
		{"plain word gains trailing slash", "uploads", "uploads/"},
		{"trailing slash preserved once", "uploads/", "uploads/"},
		{"leading slash stripped", "/uploads", "uploads/"},
		{"surrounding slashes collapsed", "///uploads///", "uploads/"},
		{"nested path", "a/b/c", "a/b/c/"},
		{"backslashes normalized", "a\\b\\c", "a/b/c/"},
		{"only slashes become empty", "///", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r2manager.NormalizePrefix(tt.prefix))
		})
	}
}

func TestResolveKey(t *testing.T) {
	t.Run("joins prefix and key", func(t *testing.T) {
		key, err := r2manager.ResolveKey("uploads", "photo.jpg")
		require.NoError(t, err)
		assert.Equal(t, "uploads/photo.jpg", key)
	})

	t.Run("empty prefix passes key through", func(t *testing.T) {
		key, err := r2manager.ResolveKey("", "docs/report.pdf")
		require.NoError(t, err)
		assert.Equal(t, "docs/report.pdf", key)
	})

	t.Run("leading slash on key is stripped", func(t *testing.T) {
		key, err := r2manager.ResolveKey("uploads/", "/photo.jpg")
		require.NoError(t, err)
		assert.Equal(t, "uploads/photo.jpg", key)
	})

	t.Run("backslashes in key are normalized", func(t *testing.T) {
		key, err := r2manager.ResolveKey("uploads", "sub\\photo.jpg")
		require.NoError(t, err)
		assert.Equal(t, "uploads/sub/photo.jpg", key)
	})

	t.Run("rejects empty key", func(t *testing.T) {
		_, err := r2manager.ResolveKey("uploads", "")
		assert.Error(t, err)
	})

	t.Run("rejects traversal segments", func(t *testing.T) {
		traversals := []string{
			"../escape.txt",
			"a/../../escape.txt",
			"..\\escape.txt",
			"a/..",
		}
		for _, key := range traversals {
			_, err := r2manager.ResolveKey("uploads", key)
			assert.Error(t, err, "key %q should be rejected", key)
		}
	})

	t.Run("dotfiles are not traversal", func(t *testing.T) {
		key, err := r2manager.ResolveKey("uploads", ".hidden")
		require.NoError(t, err)
		assert.Equal(t, "uploads/.hidden", key)

		key, err = r2manager.ResolveKey("uploads", "a/..b/c")
		require.NoError(t, err)
		assert.Equal(t, "uploads/a/..b/c", key)
	})
}
