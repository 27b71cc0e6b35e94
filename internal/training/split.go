package training

import (
	"fmt"
	"math"
	"sort"
)

// DefaultSeed makes repeated training runs produce the same split
const DefaultSeed int64 = 42

// splitmix64 is a fixed 64-bit mixer. It is used instead of math/rand so
// the split is identical across Go releases.
func splitmix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func splitKey(seed int64, index int) uint64 {
	return splitmix64(uint64(seed)*0x100000001b3 + uint64(index))
}

// StratifiedSplit partitions sample indices into train and test sets so
// each label keeps its share in both. The test set holds ceil(testSize*n)
// samples, spread over labels by largest remainder. Every label needs at
// least two samples and keeps at least one on each side. Both index lists
// are sorted.
func StratifiedSplit(labels []string, testSize float64, seed int64) ([]int, []int, error) {
	if len(labels) == 0 {
		return nil, nil, fmt.Errorf("cannot split an empty label set")
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be in (0, 1), got %g", testSize)
	}

	byLabel := make(map[string][]int)
	for i, l := range labels {
		byLabel[l] = append(byLabel[l], i)
	}
	names := make([]string, 0, len(byLabel))
	for l := range byLabel {
		names = append(names, l)
	}
	sort.Strings(names)

	sizes := make([]int, len(names))
	for i, l := range names {
		sizes[i] = len(byLabel[l])
		if sizes[i] < 2 {
			return nil, nil, fmt.Errorf("label %q has %d sample, need at least 2", l, sizes[i])
		}
	}

	total := int(math.Ceil(testSize*float64(len(labels)) - 1e-9))
	quota := allocateTestCounts(sizes, total)

	var train, test []int
	for i, l := range names {
		ids := byLabel[l]
		sort.Slice(ids, func(a, b int) bool {
			ka, kb := splitKey(seed, ids[a]), splitKey(seed, ids[b])
			if ka != kb {
				return ka < kb
			}
			return ids[a] < ids[b]
		})

		k := quota[i]
		test = append(test, ids[:k]...)
		train = append(train, ids[k:]...)
	}

	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}

// allocateTestCounts splits total test samples over classes in proportion
// to sizes using the largest remainder method. Each class gets between 1
// and size-1 samples, which can move the sum away from total when the
// bounds leave no other choice. Ties go to the larger class, then to the
// earlier one.
func allocateTestCounts(sizes []int, total int) []int {
	n := 0
	for _, size := range sizes {
		n += size
	}

	counts := make([]int, len(sizes))
	remainders := make([]float64, len(sizes))
	assigned := 0
	for i, size := range sizes {
		exact := float64(total) * float64(size) / float64(n)
		counts[i] = int(math.Floor(exact))
		remainders[i] = exact - float64(counts[i])
		if counts[i] < 1 {
			counts[i] = 1
		}
		if counts[i] > size-1 {
			counts[i] = size - 1
		}
		assigned += counts[i]
	}

	order := make([]int, len(sizes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := order[a], order[b]
		if remainders[ia] != remainders[ib] {
			return remainders[ia] > remainders[ib]
		}
		return sizes[ia] > sizes[ib]
	})

	for assigned < total {
		moved := false
		for _, i := range order {
			if assigned == total {
				break
			}
			if counts[i] < sizes[i]-1 {
				counts[i]++
				assigned++
				moved = true
			}
		}
		if !moved {
			break
		}
	}

	for assigned > total {
		moved := false
		for j := len(order) - 1; j >= 0; j-- {
			if assigned == total {
				break
			}
			i := order[j]
			if counts[i] > 1 {
				counts[i]--
				assigned--
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	return counts
}
