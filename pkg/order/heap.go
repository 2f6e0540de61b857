package order

// entry is one processed item waiting for its turn
type entry[T any] struct {
	seq     uint64
	val     T
	present bool
}

// seqHeap is a min-heap of entries keyed by sequence number
type seqHeap[T any] struct {
	data []entry[T]
}

func (h *seqHeap[T]) Len() int {
	return len(h.data)
}

func (h *seqHeap[T]) Push(e entry[T]) {
	h.data = append(h.data, e)
	h.up(len(h.data) - 1)
}

func (h *seqHeap[T]) Peek() entry[T] {
	return h.data[0]
}

func (h *seqHeap[T]) Pop() entry[T] {
	n := len(h.data) - 1
	h.data[0], h.data[n] = h.data[n], h.data[0]
	h.down(0, n)

	var zero entry[T]
	res := h.data[n]
	h.data[n] = zero // for GC
	h.data = h.data[:n]
	return res
}

func (h *seqHeap[T]) up(j int) {
	for {
		i := (j - 1) / 2 // parent
		if i == j || h.data[j].seq >= h.data[i].seq {
			break
		}
		h.data[i], h.data[j] = h.data[j], h.data[i]
		j = i
	}
}

func (h *seqHeap[T]) down(i, n int) {
	for {
		j1 := 2*i + 1
		if j1 >= n || j1 < 0 { // j1 < 0 after int overflow
			break
		}
		j := j1 // left child
		if j2 := j1 + 1; j2 < n && h.data[j2].seq < h.data[j1].seq {
			j = j2 // right child
		}
		if h.data[j].seq >= h.data[i].seq {
			break
		}
		h.data[i], h.data[j] = h.data[j], h.data[i]
		i = j
	}
}
