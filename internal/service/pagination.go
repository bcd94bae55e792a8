package service

// DefaultPageSize is the number of blocks per explorer page.
const DefaultPageSize = 20

// BlockRange returns the block numbers of page pageIndex in descending
// order: [head - pageIndex*pageSize, ...] down to pageSize entries,
// clamped at block 0. It returns nil when the page starts below genesis.
func BlockRange(head uint64, pageIndex, pageSize int) []uint64 {
	if pageIndex < 0 || pageSize <= 0 {
		return nil
	}

	// checked before multiplying so huge indexes cannot wrap around
	if uint64(pageIndex) > head/uint64(pageSize) {
		return nil
	}

	start := head - uint64(pageIndex)*uint64(pageSize)
	end := uint64(0)
	if start >= uint64(pageSize) {
		end = start - uint64(pageSize) + 1
	}

	numbers := make([]uint64, 0, start-end+1)
	for n := start; ; n-- {
		numbers = append(numbers, n)
		if n == end {
			break
		}
	}
	return numbers
}
