package ecs

// Each2 iterates over entities that have both component A and B, in ascending
// id order. It walks the smaller store and looks each id up in the larger one.
func Each2[A, B any](sa *PtrComponentStore[A], sb *PtrComponentStore[B], fn func(EntityID, *A, *B)) {
	if sa.Len() <= sb.Len() {
		for _, id := range sa.SortedIDs() {
			if b, ok := sb.data[id]; ok {
				fn(id, sa.data[id], b)
			}
		}
		return
	}
	for _, id := range sb.SortedIDs() {
		if a, ok := sa.data[id]; ok {
			fn(id, a, sb.data[id])
		}
	}
}

// Each3 iterates over entities that have components A, B, and C, in ascending
// id order.
func Each3[A, B, C any](sa *PtrComponentStore[A], sb *PtrComponentStore[B], sc *PtrComponentStore[C], fn func(EntityID, *A, *B, *C)) {
	var ids []EntityID
	switch {
	case sa.Len() <= sb.Len() && sa.Len() <= sc.Len():
		ids = sa.SortedIDs()
	case sb.Len() <= sc.Len():
		ids = sb.SortedIDs()
	default:
		ids = sc.SortedIDs()
	}
	for _, id := range ids {
		a, ok := sa.data[id]
		if !ok {
			continue
		}
		b, ok := sb.data[id]
		if !ok {
			continue
		}
		c, ok := sc.data[id]
		if !ok {
			continue
		}
		fn(id, a, b, c)
	}
}
