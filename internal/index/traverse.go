package index

import (
	"iter"

	"github.com/shopspring/decimal"

	"github.com/roach88/acctree/internal/eventlog"
)

// InOrder yields every record summary in ascending id order.
func (ix *Index) InOrder() iter.Seq[Summary] {
	return func(yield func(Summary) bool) {
		ix.walk(ix.root, func(s int32) bool {
			r := &ix.nodes[s].rec
			return yield(Summary{ID: r.id, HolderName: r.HolderName, Balance: r.Balance})
		})
	}
}

// walk visits left subtree, node, right subtree; it stops once visit
// returns false.
func (ix *Index) walk(s int32, visit func(int32) bool) bool {
	if s == nilSlot {
		return true
	}
	return ix.walk(ix.nodes[s].left, visit) &&
		visit(s) &&
		ix.walk(ix.nodes[s].right, visit)
}

// TotalBalance sums every balance, left subtree first, then the node, then
// the right subtree. An empty index totals zero.
func (ix *Index) TotalBalance() decimal.Decimal {
	return ix.sum(ix.root)
}

func (ix *Index) sum(s int32) decimal.Decimal {
	if s == nilSlot {
		return decimal.Zero
	}
	n := &ix.nodes[s]
	return ix.sum(n.left).Add(n.rec.Balance).Add(ix.sum(n.right))
}

// BulkUpdate applies fn to every record exactly once, breadth first from
// the root. fn must not insert into or delete from the index.
func (ix *Index) BulkUpdate(fn func(*Record)) {
	if ix.root == nilSlot {
		return
	}
	queue := []int32{ix.root}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		fn(&ix.nodes[s].rec)
		if l := ix.nodes[s].left; l != nilSlot {
			queue = append(queue, l)
		}
		if r := ix.nodes[s].right; r != nilSlot {
			queue = append(queue, r)
		}
	}
}

// TupleKind tells a record tuple from a history tuple.
type TupleKind uint8

const (
	RecordTuple TupleKind = iota + 1
	EventTuple
)

// Tuple is one row of the flat export: either account fields or one event
// belonging to the closest preceding record tuple.
type Tuple struct {
	Kind   TupleKind
	Fields Fields
	Event  eventlog.Event
}

// ExportAll yields, in ascending id order, each record's tuple followed by
// its history, newest event first.
func (ix *Index) ExportAll() iter.Seq[Tuple] {
	return func(yield func(Tuple) bool) {
		ix.walk(ix.root, func(s int32) bool {
			r := &ix.nodes[s].rec
			if !yield(Tuple{Kind: RecordTuple, Fields: r.Fields()}) {
				return false
			}
			for e := range r.Log.All() {
				if !yield(Tuple{Kind: EventTuple, Event: e}) {
					return false
				}
			}
			return true
		})
	}
}

// ImportOptions controls ImportAll.
type ImportOptions struct {
	// RestoreHistory re-attaches event tuples to the record they follow.
	// When false, history tuples are read and discarded.
	RestoreHistory bool
}

// ImportStats summarises an ImportAll call.
type ImportStats struct {
	Inserted   int
	Duplicates int
	Events     int
	Dropped    int
}

// ImportAll inserts each record tuple in sequence order. Duplicate ids keep
// the existing record, and their history tuples are dropped.
func (ix *Index) ImportAll(tuples iter.Seq[Tuple], opts ImportOptions) ImportStats {
	var (
		stats   ImportStats
		current *Record
		pending []eventlog.Event
	)
	// History arrives newest first; replay it oldest first so Log.All
	// reproduces the exported order.
	flush := func() {
		for i := len(pending) - 1; i >= 0; i-- {
			e := pending[i]
			current.Log.Append(e.Kind, e.Amount, e.Timestamp)
		}
		pending = pending[:0]
	}

	for t := range tuples {
		switch t.Kind {
		case RecordTuple:
			if current != nil {
				flush()
			}
			current = nil
			f := t.Fields
			if !ix.Insert(f.ID, f.HolderName, f.Balance, f.Secret) {
				stats.Duplicates++
				continue
			}
			stats.Inserted++
			if opts.RestoreHistory {
				current, _ = ix.Lookup(f.ID)
			}
		case EventTuple:
			if current == nil {
				stats.Dropped++
				continue
			}
			pending = append(pending, t.Event)
			stats.Events++
		}
	}
	if current != nil {
		flush()
	}
	return stats
}
