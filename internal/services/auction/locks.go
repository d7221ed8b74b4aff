package auction

import "sync"

// auctionLocks hands out one mutex per auction id so bid admission is
// serialized per auction without blocking bidders on unrelated auctions.
// Entries are never evicted; an auction that saw bids keeps its mutex for
// the life of the process, which is a few dozen bytes per auction.
type auctionLocks struct {
	locks sync.Map // auctionID -> *sync.Mutex
}

func (l *auctionLocks) lock(auctionID string) *sync.Mutex {
	v, _ := l.locks.LoadOrStore(auctionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu
}
