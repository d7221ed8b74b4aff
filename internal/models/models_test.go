package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestAuctionIsActive(t *testing.T) {
	goLive := time.Date(2025, 7, 27, 16, 0, 0, 0, time.UTC)
	a := Auction{
		Status:     StatusActive,
		GoLiveTime: goLive,
		Duration:   time.Hour,
	}

	tests := []struct {
		name   string
		status AuctionStatus
		now    time.Time
		want   bool
	}{
		{"before_go_live", StatusPending, goLive.Add(-time.Second), false},
		{"at_go_live", StatusPending, goLive, true},
		{"mid_window", StatusActive, goLive.Add(30 * time.Minute), true},
		{"at_end", StatusActive, goLive.Add(time.Hour), false},
		{"after_end", StatusActive, goLive.Add(2 * time.Hour), false},
		{"ended_status_never_active", StatusEnded, goLive.Add(time.Minute), false},
		{"completed_status_never_active", StatusCompleted, goLive.Add(time.Minute), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := a
			a.Status = tt.status
			require.Equal(t, tt.want, a.IsActive(tt.now))
		})
	}
}

func TestAuctionEndTime(t *testing.T) {
	goLive := time.Date(2025, 7, 27, 16, 0, 0, 0, time.UTC)
	a := Auction{GoLiveTime: goLive, Duration: 24 * time.Hour}
	require.True(t, a.EndTime().Equal(goLive.Add(24*time.Hour)))
}

func TestHighestOrStarting(t *testing.T) {
	a := Auction{StartingPrice: decimal.NewFromInt(100)}
	require.True(t, a.HighestOrStarting().Equal(decimal.NewFromInt(100)))

	a.CurrentHighestBid = decimal.NewNullDecimal(decimal.NewFromInt(120))
	require.True(t, a.HighestOrStarting().Equal(decimal.NewFromInt(120)))
}

func TestStatusTerminal(t *testing.T) {
	require.False(t, StatusPending.Terminal())
	require.False(t, StatusActive.Terminal())
	require.False(t, StatusEnded.Terminal())
	require.True(t, StatusCompleted.Terminal())
	require.True(t, StatusCancelled.Terminal())
}
