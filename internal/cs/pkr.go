package cs

import "context"

// pkrTable is the Pending Kcall Request table (spec.md §3/§4.5, 8 entries):
// every create_remote_thread that has gone out over the ring and is
// waiting for the owning tile's reply occupies one slot, keyed by the
// ring sequence number carried in the outgoing frame. spec.md §9's "PKR
// table sized or producer-blocked" Open Question is resolved as
// producer-blocked (§7): sem is a buffered channel pre-loaded with 8
// tokens, and acquire blocks its caller (the requesting kernel's run loop,
// via CS.Send) until a slot frees rather than ever growing the table or
// dropping the request.
type pkrTable struct {
	slots   [8]pkrEntry
	nextSeq uint32
	sem     chan struct{}
}

type pkrEntry struct {
	occupied      bool
	seq           uint32
	requestingTID uint32
}

func newPKRTable() *pkrTable {
	sem := make(chan struct{}, 8)
	for i := 0; i < 8; i++ {
		sem <- struct{}{}
	}
	return &pkrTable{sem: sem}
}

// acquire blocks until a PKR slot token is available or ctx is canceled.
// Call with the CS mutex NOT held: this can block for as long as every
// slot stays outstanding, and holding the CS's state lock across that
// would stall every other kcall on the tile.
func (p *pkrTable) acquire(ctx context.Context) error {
	select {
	case <-p.sem:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reserve claims a slot already acquired via acquire and returns its
// sequence number. Call with the CS mutex held.
func (p *pkrTable) reserve(requestingTID uint32) uint32 {
	for i := range p.slots {
		if !p.slots[i].occupied {
			p.nextSeq++
			p.slots[i] = pkrEntry{occupied: true, seq: p.nextSeq, requestingTID: requestingTID}
			return p.nextSeq
		}
	}
	// Unreachable as long as every reserve is paired with a prior acquire.
	p.nextSeq++
	return p.nextSeq
}

// resolve frees the slot matching seq, returns the requesting task id, and
// releases the token back to sem. ok=false means no such slot is
// outstanding (a duplicate or stale reply); call with the CS mutex held.
func (p *pkrTable) resolve(seq uint32) (requestingTID uint32, ok bool) {
	for i := range p.slots {
		if p.slots[i].occupied && p.slots[i].seq == seq {
			requestingTID = p.slots[i].requestingTID
			p.slots[i] = pkrEntry{}
			p.sem <- struct{}{}
			return requestingTID, true
		}
	}
	return 0, false
}
