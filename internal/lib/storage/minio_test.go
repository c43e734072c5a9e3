package storage

import (
	"context"
	"testing"

	"github.com/kryptonation/creamrun-sub000/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestNewMinIO_RequiresCredentials(t *testing.T) {
	_, err := NewMinIO(context.Background(), config.StorageConfig{
		Endpoint: "localhost:9000",
		Bucket:   "fleet-documents",
	})
	assert.ErrorContains(t, err, "credentials")
}
