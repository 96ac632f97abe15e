package index

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/roach88/acctree/internal/eventlog"
)

// ErrDuplicateKey is returned by InsertRecord when the id already exists.
var ErrDuplicateKey = errors.New("duplicate account number")

// nilSlot marks a missing child. Slot 0 is never handed out.
const nilSlot int32 = 0

// Fields are the persisted account columns, without history.
type Fields struct {
	ID         int64
	HolderName string
	Balance    decimal.Decimal
	Secret     string
}

// Record is one indexed account.
type Record struct {
	id         int64
	HolderName string
	Balance    decimal.Decimal
	Secret     string
	Log        eventlog.Log
}

// ID returns the account number. It never changes after creation.
func (r *Record) ID() int64 {
	return r.id
}

// Fields returns the account columns.
func (r *Record) Fields() Fields {
	return Fields{ID: r.id, HolderName: r.HolderName, Balance: r.Balance, Secret: r.Secret}
}

// Clone returns a deep copy, including the event log.
func (r *Record) Clone() Record {
	cp := *r
	cp.Log = r.Log.Clone()
	return cp
}

// Summary is the listing view of a record.
type Summary struct {
	ID         int64
	HolderName string
	Balance    decimal.Decimal
}

// Handle addresses a record slot. The zero Handle is never valid.
type Handle struct {
	slot int32
	gen  uint32
}

// Stats counts rotations performed since the index was created.
type Stats struct {
	LeftRotations  int
	RightRotations int
}

type node struct {
	rec    Record
	left   int32
	right  int32
	height int32
	gen    uint32
	live   bool
}

// Index is an AVL tree of records. The zero value is an empty index.
type Index struct {
	nodes []node
	free  []int32
	root  int32
	size  int
	stats Stats
}

// New returns an empty index.
func New() *Index {
	return &Index{}
}

// Len returns the number of records.
func (ix *Index) Len() int {
	return ix.size
}

// Height returns the height of the tree; 0 when empty.
func (ix *Index) Height() int {
	return int(ix.height(ix.root))
}

// RootID returns the account number stored at the root.
func (ix *Index) RootID() (int64, bool) {
	if ix.root == nilSlot {
		return 0, false
	}
	return ix.nodes[ix.root].rec.id, true
}

// Stats returns the rotation counters.
func (ix *Index) Stats() Stats {
	return ix.stats
}

// Find locates id by standard BST descent.
func (ix *Index) Find(id int64) (Handle, bool) {
	s := ix.root
	for s != nilSlot {
		n := &ix.nodes[s]
		switch {
		case id < n.rec.id:
			s = n.left
		case id > n.rec.id:
			s = n.right
		default:
			return Handle{slot: s, gen: n.gen}, true
		}
	}
	return Handle{}, false
}

// Get resolves a handle. It reports false for stale handles.
func (ix *Index) Get(h Handle) (*Record, bool) {
	if h.slot <= nilSlot || int(h.slot) >= len(ix.nodes) {
		return nil, false
	}
	n := &ix.nodes[h.slot]
	if !n.live || n.gen != h.gen {
		return nil, false
	}
	return &n.rec, true
}

// Lookup is Find followed by Get.
func (ix *Index) Lookup(id int64) (*Record, bool) {
	h, ok := ix.Find(id)
	if !ok {
		return nil, false
	}
	return ix.Get(h)
}

// Insert adds a record when id is absent and reports whether it did.
// An existing record with the same id is left untouched.
func (ix *Index) Insert(id int64, holderName string, balance decimal.Decimal, secret string) bool {
	root, created := ix.insert(ix.root, Fields{ID: id, HolderName: holderName, Balance: balance, Secret: secret})
	ix.root = root
	if created {
		ix.size++
	}
	return created
}

// InsertRecord is Insert that signals a duplicate as ErrDuplicateKey and
// returns a handle to the new record.
func (ix *Index) InsertRecord(f Fields) (Handle, error) {
	if !ix.Insert(f.ID, f.HolderName, f.Balance, f.Secret) {
		return Handle{}, ErrDuplicateKey
	}
	h, _ := ix.Find(f.ID)
	return h, nil
}

// Delete removes id and reports whether a record was removed.
func (ix *Index) Delete(id int64) bool {
	root, removed := ix.delete(ix.root, id)
	ix.root = root
	if removed {
		ix.size--
	}
	return removed
}

func (ix *Index) alloc(f Fields) int32 {
	if len(ix.nodes) == 0 {
		ix.nodes = append(ix.nodes, node{})
	}
	rec := Record{id: f.ID, HolderName: f.HolderName, Balance: f.Balance, Secret: f.Secret}
	if n := len(ix.free); n > 0 {
		s := ix.free[n-1]
		ix.free = ix.free[:n-1]
		gen := ix.nodes[s].gen + 1
		ix.nodes[s] = node{rec: rec, height: 1, gen: gen, live: true}
		return s
	}
	ix.nodes = append(ix.nodes, node{rec: rec, height: 1, gen: 1, live: true})
	return int32(len(ix.nodes) - 1)
}

func (ix *Index) release(s int32) {
	gen := ix.nodes[s].gen
	ix.nodes[s] = node{gen: gen}
	ix.free = append(ix.free, s)
}
