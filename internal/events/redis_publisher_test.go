package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisPublisherPublish(t *testing.T) {
	client, mock := redismock.NewClientMock()
	t.Cleanup(func() { client.Close() })
	pub := NewRedisPublisher(client)

	body := map[string]any{"auction_id": "a1", "highest_bid": "120.00"}
	payload, err := json.Marshal(Envelope{Type: TypeBidUpdate, Body: body})
	require.NoError(t, err)

	mock.ExpectPublish(ChannelPrefix+AuctionGroup("a1"), payload).SetVal(1)

	pub.Publish(AuctionGroup("a1"), TypeBidUpdate, body)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisPublisherFailureIsSwallowed(t *testing.T) {
	client, mock := redismock.NewClientMock()
	t.Cleanup(func() { client.Close() })
	pub := NewRedisPublisher(client)

	payload, err := json.Marshal(Envelope{Type: TypeAuctionEnd, Body: "x"})
	require.NoError(t, err)
	mock.ExpectPublish(ChannelPrefix+AuctionGroup("a1"), payload).
		SetErr(errors.New("connection refused"))

	// must not panic or propagate
	pub.Publish(AuctionGroup("a1"), TypeAuctionEnd, "x")
}

func TestGroupNames(t *testing.T) {
	require.Equal(t, "auction:a1", AuctionGroup("a1"))
	require.Equal(t, "user:alice", UserGroup("alice"))
	require.Equal(t, "admin", Admin)
}
