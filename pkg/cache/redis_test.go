package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/fleet-compliance-api/pkg/config"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "compliance:summary:all:2026-10-15", Key("compliance", "summary", "all", "2026-10-15"))
	assert.Equal(t, "compliance:summary", Key("compliance:", " ", ":summary"))
	assert.Equal(t, "", Key())
}

func TestAddr(t *testing.T) {
	assert.Equal(t, "redis:6380", Addr(config.RedisConfig{Host: "redis", Port: 6380}))
}
