package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "fleet:reports:fleet", Key("reports", "fleet"))
	assert.Equal(t, "fleet:", Key())
}

func TestRedisCache_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	c := NewRedis(client)

	var out map[string]int
	hit, err := c.Get(context.Background(), Key("x"), &out)
	assert.False(t, hit)
	assert.Error(t, err)
	assert.Error(t, c.Set(context.Background(), Key("x"), map[string]int{"a": 1}, time.Second))
	assert.NoError(t, c.Delete(context.Background()))
}
