package huffman

// Build constructs a length-limited canonical Huffman code for t.Freq and
// fills t.Len and t.Code. maxLen bounds the longest code word (15 for the
// literal/length and distance alphabets, 7 for the bit-length alphabet).
//
// The construction follows the classic three-pass scheme: a frequency-
// ordered min-heap merge builds an unbalanced binary tree (depth breaks
// ties between equal frequencies), a bottom-up scan of that tree assigns
// each leaf a bit length equal to its depth, and any length exceeding
// maxLen is repaired by shifting leaves from the deepest level down into
// shallower, shorter codes one pair at a time until the Kraft sum is
// restored. Canonical codes are then assigned in symbol order per length
// class, bit-reversed for LSB-first transmission.
func (t *Tree) Build(maxLen int) {
	n := len(t.Freq)

	copy(t.freq[:n], t.Freq)
	for i := n; i < len(t.freq); i++ {
		t.freq[i] = 0
	}
	for i := range t.length {
		t.length[i] = 0
	}

	heapLen := 0
	maxCode := -1
	for i := 0; i < n; i++ {
		if t.freq[i] != 0 {
			heapLen++
			t.heap[heapLen] = int32(i)
			maxCode = i
			t.depth[i] = 0
		}
	}

	// DEFLATE requires at least two representable codes (so that at
	// least one bit is always sent). Pad with synthetic freq=1 leaves
	// if fewer than two symbols occurred; Freq itself is untouched, so
	// callers deriving bit costs from Freq*Len see the true (zero) cost
	// of any padding symbol.
	for heapLen < 2 {
		var node int32
		if maxCode < 2 {
			maxCode++
			node = int32(maxCode)
		} else {
			node = 0
		}
		t.freq[node] = 1
		t.depth[node] = 0
		heapLen++
		t.heap[heapLen] = node
	}
	t.heapLen = heapLen
	t.heapMax = len(t.heap)

	for i := heapLen / 2; i >= 1; i-- {
		t.pqDownheap(i)
	}

	node := int32(n) // next internal node index
	for t.heapLen >= 2 {
		sm := t.heap[1]
		t.pqRemoveSmallest()
		nx := t.heap[1]

		t.heapMax--
		t.heap[t.heapMax] = sm
		t.heapMax--
		t.heap[t.heapMax] = nx

		t.freq[node] = t.freq[sm] + t.freq[nx]
		if t.depth[sm] >= t.depth[nx] {
			t.depth[node] = t.depth[sm] + 1
		} else {
			t.depth[node] = t.depth[nx] + 1
		}
		t.parent[sm] = node
		t.parent[nx] = node

		t.heap[1] = node
		node++
		t.pqDownheap(1)
	}
	t.heapMax--
	t.heap[t.heapMax] = t.heap[1]

	t.genBitLen(maxCode, maxLen)
	copy(t.Len, t.length[:n])
	genCodes(t.Len, maxCode, t.blCount[:], t.Code)
}

// pqDownheap restores the heap property downward from index k, ordering by
// (frequency asc, depth asc).
func (t *Tree) pqDownheap(k int) {
	v := t.heap[k]
	j := k << 1
	for j <= t.heapLen {
		if j < t.heapLen && t.smaller(t.heap[j+1], t.heap[j]) {
			j++
		}
		if t.smaller(v, t.heap[j]) {
			break
		}
		t.heap[k] = t.heap[j]
		k = j
		j <<= 1
	}
	t.heap[k] = v
}

func (t *Tree) pqRemoveSmallest() {
	t.heap[1] = t.heap[t.heapLen]
	t.heapLen--
	t.pqDownheap(1)
}

func (t *Tree) smaller(a, b int32) bool {
	fa, fb := t.freq[a], t.freq[b]
	if fa != fb {
		return fa < fb
	}
	return t.depth[a] <= t.depth[b]
}

// genBitLen assigns leaf bit lengths from tree depth (via parent links),
// clamping to maxLen and repairing any overflow by the classic "borrow
// from the deepest code, lend to two shallower ones" pass.
func (t *Tree) genBitLen(maxCode, maxLen int) {
	for i := range t.blCount {
		t.blCount[i] = 0
	}

	t.length[t.heap[t.heapMax]] = 0
	overflow := 0
	for h := t.heapMax + 1; h < len(t.heap); h++ {
		n := t.heap[h]
		bits := int(t.length[t.parent[n]]) + 1
		if bits > maxLen {
			bits = maxLen
			overflow++
		}
		t.length[n] = uint8(bits)
		if int(n) > maxCode {
			continue // internal node, not a transmitted symbol
		}
		t.blCount[bits]++
	}
	if overflow == 0 {
		return
	}

	for overflow > 0 {
		bits := maxLen - 1
		for t.blCount[bits] == 0 {
			bits--
		}
		t.blCount[bits]--
		t.blCount[bits+1] += 2
		t.blCount[maxLen]--
		overflow -= 2
	}

	// Re-derive every leaf length from the repaired bl_count histogram,
	// walking leaves in ascending frequency order (the heap, read from
	// the back, is exactly that order), so the longest lengths go to the
	// least frequent leaves.
	h := len(t.heap)
	for bits := maxLen; bits != 0; bits-- {
		n := t.blCount[bits]
		for n != 0 {
			h--
			m := t.heap[h]
			if int(m) > maxCode {
				continue
			}
			t.length[m] = uint8(bits)
			n--
		}
	}
}
