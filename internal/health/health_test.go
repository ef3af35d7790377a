package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckReady(t *testing.T) {
	ok := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("connection refused") })

	h := NewHealthChecker(map[string]Pinger{"redis": ok, "database": nil})
	res := h.CheckReady(context.Background())
	assert.Equal(t, StatusHealthy, res.Status)
	assert.Equal(t, StatusHealthy, res.Dependencies["redis"].Status)
	assert.Equal(t, StatusDisabled, res.Dependencies["database"].Status)

	h = NewHealthChecker(map[string]Pinger{"redis": ok, "upstream": down})
	res = h.CheckReady(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.Equal(t, "connection refused", res.Dependencies["upstream"].Error)
}

func TestCheckDetailed(t *testing.T) {
	h := NewHealthChecker(nil)
	res := h.CheckDetailed(context.Background())
	assert.Equal(t, StatusHealthy, res.Status)
	assert.Positive(t, res.Host.Goroutines)
	assert.NotEmpty(t, res.Uptime)
}
