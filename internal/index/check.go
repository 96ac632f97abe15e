package index

import "fmt"

// InvariantError reports the first node that violates the search-order,
// height, or balance invariant.
type InvariantError struct {
	ID     int64
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("index invariant violated at account %d: %s", e.ID, e.Reason)
}

// Check walks the whole tree and verifies that keys are strictly ordered,
// stored heights are exact, and every balance factor is within [-1, 1].
func (ix *Index) Check() error {
	count := 0
	if _, err := ix.check(ix.root, nil, nil, &count); err != nil {
		return err
	}
	if count != ix.size {
		return &InvariantError{Reason: fmt.Sprintf("reachable nodes %d != size %d", count, ix.size)}
	}
	return nil
}

func (ix *Index) check(s int32, lo, hi *int64, count *int) (int32, error) {
	if s == nilSlot {
		return 0, nil
	}
	n := &ix.nodes[s]
	id := n.rec.id
	*count++

	if !n.live {
		return 0, &InvariantError{ID: id, Reason: "released slot reachable from root"}
	}
	if lo != nil && id <= *lo {
		return 0, &InvariantError{ID: id, Reason: fmt.Sprintf("key not greater than ancestor %d", *lo)}
	}
	if hi != nil && id >= *hi {
		return 0, &InvariantError{ID: id, Reason: fmt.Sprintf("key not less than ancestor %d", *hi)}
	}

	lh, err := ix.check(n.left, lo, &id, count)
	if err != nil {
		return 0, err
	}
	rh, err := ix.check(n.right, &id, hi, count)
	if err != nil {
		return 0, err
	}

	h := 1 + max(lh, rh)
	if n.height != h {
		return 0, &InvariantError{ID: id, Reason: fmt.Sprintf("stored height %d, computed %d", n.height, h)}
	}
	if bf := lh - rh; bf < -1 || bf > 1 {
		return 0, &InvariantError{ID: id, Reason: fmt.Sprintf("balance factor %d", bf)}
	}
	return h, nil
}
