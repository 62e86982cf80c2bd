package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClient_Disabled(t *testing.T) {
	ctx := context.Background()

	for name, c := range map[string]*Client{
		"nil client": nil,
		"empty addr": New("", "", 0),
		"zero value": {},
	} {
		t.Run(name, func(t *testing.T) {
			assert.False(t, c.Enabled())

			assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
			data, err := c.Get(ctx, "k")
			assert.NoError(t, err)
			assert.Nil(t, data)

			assert.NoError(t, c.SetJSON(ctx, "k", map[string]string{"a": "b"}, time.Minute))
			var dst map[string]string
			assert.False(t, c.GetJSON(ctx, "k", &dst))

			assert.NoError(t, c.Delete(ctx, "k"))
			assert.Error(t, c.Ping(ctx))
			assert.NoError(t, c.Close())
		})
	}
}

func TestClient_UnreachableFailsSafe(t *testing.T) {
	// Nothing listens on port 1; every call must degrade to a miss.
	c := New("127.0.0.1:1", "", 0)
	t.Cleanup(func() { _ = c.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.True(t, c.Enabled())
	assert.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	data, err := c.Get(ctx, "k")
	assert.NoError(t, err)
	assert.Nil(t, data)
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.Error(t, c.Ping(ctx))
}

func TestClient_SetJSONRejectsUnencodable(t *testing.T) {
	c := New("", "", 0)
	assert.Error(t, c.SetJSON(context.Background(), "k", make(chan int), time.Minute))
}
