package mongo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/saasadmin/pkg/mongo"
)

func TestConnect_NotConfigured(t *testing.T) {
	t.Parallel()

	_, err := mongo.Connect(context.Background(), mongo.Config{})
	assert.ErrorIs(t, err, mongo.ErrNotConfigured)
	assert.False(t, mongo.Config{}.Enabled())
}

func TestConnect_GivesUpWhenContextIsDone(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := mongo.Connect(ctx, mongo.Config{
		ConnectionURL:  "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=50",
		ConnectTimeout: 50 * time.Millisecond,
		MaxPoolSize:    1,
		RetryAttempts:  5,
		RetryInterval:  time.Second,
	})
	assert.ErrorIs(t, err, mongo.ErrFailedToConnectToMongo)
}
