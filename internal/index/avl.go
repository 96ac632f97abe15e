package index

func (ix *Index) height(s int32) int32 {
	if s == nilSlot {
		return 0
	}
	return ix.nodes[s].height
}

func (ix *Index) balanceFactor(s int32) int32 {
	if s == nilSlot {
		return 0
	}
	return ix.height(ix.nodes[s].left) - ix.height(ix.nodes[s].right)
}

func (ix *Index) updateHeight(s int32) {
	ix.nodes[s].height = 1 + max(ix.height(ix.nodes[s].left), ix.height(ix.nodes[s].right))
}

// rotateRight pivots on y's left child and returns the new subtree root.
func (ix *Index) rotateRight(y int32) int32 {
	x := ix.nodes[y].left
	t2 := ix.nodes[x].right

	ix.nodes[x].right = y
	ix.nodes[y].left = t2

	ix.updateHeight(y)
	ix.updateHeight(x)
	ix.stats.RightRotations++
	return x
}

// rotateLeft pivots on x's right child and returns the new subtree root.
func (ix *Index) rotateLeft(x int32) int32 {
	y := ix.nodes[x].right
	t2 := ix.nodes[y].left

	ix.nodes[y].left = x
	ix.nodes[x].right = t2

	ix.updateHeight(x)
	ix.updateHeight(y)
	ix.stats.LeftRotations++
	return y
}

// insert returns the new root of the subtree at s. Slots are re-read after
// the recursive call because alloc may grow the arena.
func (ix *Index) insert(s int32, f Fields) (int32, bool) {
	if s == nilSlot {
		return ix.alloc(f), true
	}

	var created bool
	switch id := ix.nodes[s].rec.id; {
	case f.ID < id:
		var child int32
		child, created = ix.insert(ix.nodes[s].left, f)
		ix.nodes[s].left = child
	case f.ID > id:
		var child int32
		child, created = ix.insert(ix.nodes[s].right, f)
		ix.nodes[s].right = child
	default:
		return s, false
	}
	if !created {
		return s, false
	}

	ix.updateHeight(s)
	return ix.rebalanceAfterInsert(s, f.ID), true
}

// rebalanceAfterInsert picks the rotation from where the new key landed.
func (ix *Index) rebalanceAfterInsert(s int32, key int64) int32 {
	bf := ix.balanceFactor(s)
	left, right := ix.nodes[s].left, ix.nodes[s].right

	switch {
	case bf > 1 && key < ix.nodes[left].rec.id:
		return ix.rotateRight(s)
	case bf < -1 && key > ix.nodes[right].rec.id:
		return ix.rotateLeft(s)
	case bf > 1 && key > ix.nodes[left].rec.id:
		ix.nodes[s].left = ix.rotateLeft(left)
		return ix.rotateRight(s)
	case bf < -1 && key < ix.nodes[right].rec.id:
		ix.nodes[s].right = ix.rotateRight(right)
		return ix.rotateLeft(s)
	}
	return s
}

func (ix *Index) minSlot(s int32) int32 {
	for ix.nodes[s].left != nilSlot {
		s = ix.nodes[s].left
	}
	return s
}

// delete returns the new root of the subtree at s.
//
// A node with two children takes over its in-order successor's payload and
// the successor is then deleted from the right subtree by id. The slot that
// held the removed id keeps its place in the tree; the successor's slot is
// the one released.
func (ix *Index) delete(s int32, id int64) (int32, bool) {
	if s == nilSlot {
		return s, false
	}

	var removed bool
	switch cur := ix.nodes[s].rec.id; {
	case id < cur:
		var child int32
		child, removed = ix.delete(ix.nodes[s].left, id)
		ix.nodes[s].left = child
	case id > cur:
		var child int32
		child, removed = ix.delete(ix.nodes[s].right, id)
		ix.nodes[s].right = child
	default:
		left, right := ix.nodes[s].left, ix.nodes[s].right
		if left == nilSlot || right == nilSlot {
			child := left
			if child == nilSlot {
				child = right
			}
			ix.release(s)
			return child, true
		}

		succ := ix.minSlot(right)
		// release zeroes the successor slot, so the log moves rather than
		// being shared.
		ix.nodes[s].rec = ix.nodes[succ].rec
		child, _ := ix.delete(right, ix.nodes[s].rec.id)
		ix.nodes[s].right = child
		removed = true
	}
	if !removed {
		return s, false
	}

	ix.updateHeight(s)
	return ix.rebalanceAfterDelete(s), true
}

// rebalanceAfterDelete picks the rotation from the heavy child's own balance.
func (ix *Index) rebalanceAfterDelete(s int32) int32 {
	bf := ix.balanceFactor(s)
	left, right := ix.nodes[s].left, ix.nodes[s].right

	switch {
	case bf > 1 && ix.balanceFactor(left) >= 0:
		return ix.rotateRight(s)
	case bf > 1:
		ix.nodes[s].left = ix.rotateLeft(left)
		return ix.rotateRight(s)
	case bf < -1 && ix.balanceFactor(right) <= 0:
		return ix.rotateLeft(s)
	case bf < -1:
		ix.nodes[s].right = ix.rotateRight(right)
		return ix.rotateLeft(s)
	}
	return s
}
