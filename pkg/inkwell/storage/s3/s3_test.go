package s3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendConfiguration(t *testing.T) {
	t.Run("empty bucket", func(t *testing.T) {
		_, err := New(Config{Region: "us-east-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bucket name is required")
	})

	t.Run("default public url is virtual hosted", func(t *testing.T) {
		backend, err := New(Config{
			Bucket:          "staging-bucket",
			Region:          "eu-west-1",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://staging-bucket.s3.eu-west-1.amazonaws.com", backend.publicBaseURL)
	})

	t.Run("custom endpoint public url", func(t *testing.T) {
		backend, err := New(Config{
			Bucket:          "staging-bucket",
			Endpoint:        "http://localhost:9000/",
			AccessKeyID:     "minioadmin",
			SecretAccessKey: "minioadmin",
			UsePathStyle:    true,
		})
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9000/staging-bucket", backend.publicBaseURL)
	})

	t.Run("explicit public url wins", func(t *testing.T) {
		backend, err := New(Config{
			Bucket:          "staging-bucket",
			AccessKeyID:     "test-key",
			SecretAccessKey: "test-secret",
			PublicBaseURL:   "https://blobs.example.com/",
		})
		require.NoError(t, err)
		assert.Equal(t, "https://blobs.example.com", backend.publicBaseURL)
	})
}
