package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWallClock(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	in := time.Date(2024, 3, 10, 2, 30, 15, 999_000_000, loc)

	got := WallClock(in)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, "2024-03-10 02:30:15", got.Format(time.DateTime))
	assert.Zero(t, got.Nanosecond())
}

func TestOperation_HasCounterparty(t *testing.T) {
	assert.True(t, OpTransferred.HasCounterparty())
	assert.True(t, OpReceived.HasCounterparty())
	assert.False(t, OpWithdrew.HasCounterparty())
	assert.False(t, OpInquiry.HasCounterparty())
	assert.False(t, OpFinalBalance.HasCounterparty())
}
