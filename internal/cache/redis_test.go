package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONHelpersDegradeWithoutClient(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	SetJSON(ctx, "k", []int{1}, time.Minute)
	var out []int
	assert.False(t, GetJSON(ctx, "k", &out))
	assert.Error(t, Ping(ctx))
	InvalidateKeys(ctx, "k")
}

func TestJSONRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetClient(c)
	t.Cleanup(Close)
	ctx := context.Background()

	key := RolesKey("secret-token")
	assert.NotContains(t, key, "secret-token")
	assert.Equal(t, TokenKey("roles", "secret-token"), key)

	SetJSON(ctx, key, []string{"Viewer", "Editor"}, RolesTTL)
	var out []string
	require.True(t, GetJSON(ctx, key, &out))
	assert.Equal(t, []string{"Viewer", "Editor"}, out)
	assert.NoError(t, Ping(ctx))

	InvalidateKeys(ctx, key)
	assert.False(t, GetJSON(ctx, key, &out))
	SetJSON(ctx, key, []string{"Viewer"}, RolesTTL)

	mr.FastForward(RolesTTL + time.Second)
	assert.False(t, GetJSON(ctx, key, &out))

	require.NoError(t, mr.Set("bad", "{not json"))
	assert.False(t, GetJSON(ctx, "bad", &out))
	assert.False(t, mr.Exists("bad"))
}
