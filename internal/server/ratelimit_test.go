package server

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserLimiterEvictsIdleBuckets(t *testing.T) {
	clock := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	l := newUserLimiter(1, 2)
	l.now = func() time.Time { return clock }

	for i := 0; i < 1000; i++ {
		require.True(t, l.Allow(fmt.Sprintf("user-%d", i)))
	}
	assert.Equal(t, 1000, l.size())

	clock = clock.Add(l.idle)
	require.True(t, l.Allow("alice"))
	assert.Equal(t, 1, l.size())
}

func TestUserLimiterKeepsActiveBuckets(t *testing.T) {
	clock := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	l := newUserLimiter(0.001, 1)
	l.now = func() time.Time { return clock }

	require.True(t, l.Allow("alice"))
	assert.False(t, l.Allow("alice"))

	clock = clock.Add(l.idle / 2)
	assert.False(t, l.Allow("alice"))
	assert.Equal(t, 1, l.size())
}

func TestSpeakRejectsInvalidIDsBeforeLimiting(t *testing.T) {
	s := setupTestServer(t, Config{})
	for i := 0; i < 50; i++ {
		rec := doJSON(t, s, http.MethodPost, "/speak", SpeakRequest{UserID: fmt.Sprintf("../x%d", i), Message: "Salut"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
	assert.Equal(t, 0, s.limiter.size())
}
