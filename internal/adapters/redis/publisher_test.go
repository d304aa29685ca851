package redisadapter

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskboard/internal/domain"
)

func TestPublisher_AppendsToStream(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewClient(Options{Addr: mr.Addr()})
	defer client.Close()
	ctx := context.Background()
	require.NoError(t, Ping(ctx, client))

	pub := NewPublisher(client, "risk:domain-events", 0)
	ev := domain.DomainRiskEvent{
		Type:           domain.EventDomainRiskResolved,
		DomainRiskID:   "dr-1",
		AppID:          "APP-1",
		Domain:         "security_rating",
		ARB:            "security",
		Status:         domain.DomainResolved,
		PreviousStatus: domain.DomainInProgress,
		OccurredAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, pub.Publish(ctx, ev))

	entries, err := client.XRange(ctx, "risk:domain-events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.EventDomainRiskResolved, entries[0].Values["type"])
	assert.Equal(t, "dr-1", entries[0].Values["domain_risk_id"])

	var decoded domain.DomainRiskEvent
	require.NoError(t, json.Unmarshal([]byte(entries[0].Values["data"].(string)), &decoded))
	assert.Equal(t, ev, decoded)
}

func TestPublisher_ErrorWhenServerGone(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewClient(Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	err := NewPublisher(client, "s", 0).Publish(context.Background(), domain.DomainRiskEvent{Type: "x"})
	assert.Error(t, err)
}
