package sample

// SliceIterator walks a batch in ascending, contiguous slices. It is
// single-use: once exhausted, call Batch.IterSlice again to start over.
//
//	it, err := b.IterSlice(50)
//	if err != nil { ... }
//	for it.Next() {
//		chunk := it.Batch()
//		...
//	}
type SliceIterator struct {
	src   *Batch
	by    int
	start int
	index int
	cur   *Batch
}

// Next advances to the next slice and reports whether one is available.
func (it *SliceIterator) Next() bool {
	if it.start >= it.src.nSample {
		it.cur = nil
		return false
	}
	end := min(it.start+it.by, it.src.nSample)

	// Bounds are valid by construction.
	cur, _ := it.src.Slice(it.start, end)
	it.cur = cur
	it.start = end
	it.index++
	return true
}

// Batch returns the current slice. It is nil before the first call to Next
// and after the iterator is exhausted.
func (it *SliceIterator) Batch() *Batch {
	return it.cur
}

// Index returns the zero-based position of the current slice.
func (it *SliceIterator) Index() int {
	return it.index
}

// Offset returns the index in the source batch of the first set of the
// current slice.
func (it *SliceIterator) Offset() int {
	if it.cur == nil {
		return it.start
	}
	return it.start - it.cur.nSample
}

// Len returns the total number of slices the iterator yields.
func (it *SliceIterator) Len() int {
	return (it.src.nSample + it.by - 1) / it.by
}
