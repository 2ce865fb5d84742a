package gop

// Snapshot is one buffered {State, Info} pair awaiting a public key.
type Snapshot struct {
	GOPIdx int
	State  *State
	Info   Info

	// ItemsFromSeq/ItemsToSeq are the stable [from, to) seq range this
	// snapshot's items occupy, so a later flush can locate them regardless
	// of how many items have drained (and the list compacted) meanwhile.
	ItemsFromSeq, ItemsToSeq int
}

// Ring is a fixed-capacity FIFO of pending GOP snapshots, indexed by
// GOP index mod MaxPendingGops. When full, the oldest snapshot is evicted;
// the caller is responsible for settling the evicted items as Unknown.
type Ring struct {
	slots [MaxPendingGops]*Snapshot
	order []int // gop_idx values in FIFO order, for deterministic flush
}

func NewRing() *Ring {
	return &Ring{}
}

// Push buffers a snapshot. It returns an evicted snapshot (non-nil) when
// the ring was already at capacity.
func (r *Ring) Push(s *Snapshot) *Snapshot {
	idx := s.GOPIdx % MaxPendingGops
	var evicted *Snapshot
	if len(r.order) >= MaxPendingGops {
		oldest := r.order[0]
		r.order = r.order[1:]
		evicted = r.slots[oldest%MaxPendingGops]
		r.slots[oldest%MaxPendingGops] = nil
	}
	r.slots[idx] = s
	r.order = append(r.order, s.GOPIdx)
	return evicted
}

// Len reports how many snapshots are buffered.
func (r *Ring) Len() int {
	return len(r.order)
}

// FlushAll drains every buffered snapshot in FIFO (arrival) order and
// clears the ring.
func (r *Ring) FlushAll() []*Snapshot {
	out := make([]*Snapshot, 0, len(r.order))
	for _, idx := range r.order {
		if s := r.slots[idx%MaxPendingGops]; s != nil {
			out = append(out, s)
			r.slots[idx%MaxPendingGops] = nil
		}
	}
	r.order = nil
	return out
}

// Reset clears the ring without returning its contents.
func (r *Ring) Reset() {
	for i := range r.slots {
		r.slots[i] = nil
	}
	r.order = nil
}
