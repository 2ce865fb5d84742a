package validation

import (
	"github.com/bugVanisher/svvalidate/media/hash"
	"github.com/bugVanisher/svvalidate/media/nalu"
)

// Item is one entry in the pending list. The list itself is an append-only
// arena rather than a doubly linked list: items are appended at the tail,
// removed from the head once a verdict is final, and addressed in between
// by stable seq (the engine matches a late SEI to its GOP by counter, then
// reaches the GOP's items through their recorded seq range).
type Item struct {
	Nalu *nalu.Info

	Status Status

	Hash          hash.Digest
	HasSecondHash bool
	SecondHash    hash.Digest

	NeedsSecondVerification      bool
	FirstVerificationNotAuthentic bool
	HasBeenDecoded               bool // SEI items only
	UsedInGOPHash                bool

	// GOPIndex is the engine's GOP counter (not reduced modulo
	// MaxPendingGops) of the GOP this item's *first* hash contribution
	// belongs to.
	GOPIndex int

	// seq is this item's position in overall arrival order: the stable key
	// ItemBySeq looks it up by, and the position reported in
	// missing/invalid-position lists.
	seq int
}

// List is the append-only arena of pending items.
type List struct {
	items []*Item
	head  int // index of the oldest still-retained item
	seq   int
}

func NewList() *List {
	return &List{}
}

// Append adds a new item at the tail with status Pending and returns it.
func (l *List) Append(info *nalu.Info) *Item {
	it := &Item{Nalu: info, Status: StatusPending, seq: l.seq}
	l.seq++
	l.items = append(l.items, it)
	return it
}

// Len is the number of retained items (from head to tail).
func (l *List) Len() int {
	return len(l.items) - l.head
}

// At returns the i-th retained item (0 == head).
func (l *List) At(i int) *Item {
	return l.items[l.head+i]
}

// Tail returns the most recently appended item, or nil if empty.
func (l *List) Tail() *Item {
	if l.Len() == 0 {
		return nil
	}
	return l.items[len(l.items)-1]
}

// DrainSettled removes items from the head while their status is not
// Pending, returning the drained slice. Runs after every add; whatever it
// returns becomes the next report.
func (l *List) DrainSettled() []*Item {
	var drained []*Item
	for l.head < len(l.items) && l.items[l.head].Status != StatusPending {
		drained = append(drained, l.items[l.head])
		l.head++
	}
	l.compact()
	return drained
}

// compact periodically reclaims the dropped prefix so the backing array
// doesn't grow unbounded across a long session.
func (l *List) compact() {
	if l.head == 0 || l.head < 256 {
		return
	}
	remaining := make([]*Item, len(l.items)-l.head)
	copy(remaining, l.items[l.head:])
	l.items = remaining
	l.head = 0
}

// Reset empties the list.
func (l *List) Reset() {
	l.items = nil
	l.head = 0
}

// SeqOfTail is the stable seq of the most recently appended item, or -1 if
// empty. Unlike a retained index, seq never shifts as items drain from the
// head, so it is safe to cache across calls (gop.Info.FirstNaluSeq,
// closedGOP's item-range bounds, gop.Snapshot's bounds all do this).
func (l *List) SeqOfTail() int {
	if t := l.Tail(); t != nil {
		return t.seq
	}
	return -1
}

// ItemBySeq looks up an item by its stable seq while it is still in the
// backing array: an item drained from the head stays reachable until
// compaction reclaims it. It returns nil once the item has been compacted
// away or if it hasn't been appended yet.
func (l *List) ItemBySeq(seq int) *Item {
	if len(l.items) == 0 {
		return nil
	}
	idx := seq - l.items[0].seq
	if idx < 0 || idx >= len(l.items) {
		return nil
	}
	return l.items[idx]
}
