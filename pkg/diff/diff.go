package diff

// Diffable is implemented by values the primitive can match. Identity decides
// whether two values are the same element; Equal decides whether a matched
// element changed.
type Diffable[T any] interface {
	Identity() uint64
	Equal(T) bool
}

// Func computes the edits that turn before into after.
type Func[T any] func(before, after []T) []Operation[T]

// Diff computes the edits turning before into after by keeping the longest
// common subsequence of identities in place.
//
// Kept elements that changed are reported as Update when they occupy the same
// index on both sides and as Move otherwise. Remaining elements whose identity
// appears on both sides are paired up in order as Move; everything else is a
// Delete or an Add. The returned list carries no ordering guarantee.
func Diff[T Diffable[T]](before, after []T) []Operation[T] {
	oldIDs := identities(before)
	newIDs := identities(after)

	matchOld := make([]int, len(before))
	for i := range matchOld {
		matchOld[i] = -1
	}
	matchNew := make([]int, len(after))
	for j := range matchNew {
		matchNew[j] = -1
	}

	start := 0
	for start < len(before) && start < len(after) && oldIDs[start] == newIDs[start] {
		matchOld[start], matchNew[start] = start, start
		start++
	}
	endOld, endNew := len(before), len(after)
	for endOld > start && endNew > start && oldIDs[endOld-1] == newIDs[endNew-1] {
		endOld--
		endNew--
		matchOld[endOld], matchNew[endNew] = endNew, endOld
	}

	for _, pair := range lcs(oldIDs[start:endOld], newIDs[start:endNew]) {
		i, j := pair[0]+start, pair[1]+start
		matchOld[i], matchNew[j] = j, i
	}

	var adds []Operation[T]
	var moves []Operation[T]
	var updates []Operation[T]

	for i, j := range matchOld {
		if j < 0 || before[i].Equal(after[j]) {
			continue
		}
		if i == j {
			updates = append(updates, UpdateOp(before[i], after[j], i))
		} else {
			moves = append(moves, MoveOp(before[i], after[j], i, j))
		}
	}

	pending := make(map[uint64][]int)
	for i, j := range matchOld {
		if j < 0 {
			pending[oldIDs[i]] = append(pending[oldIDs[i]], i)
		}
	}
	for j, i := range matchNew {
		if i >= 0 {
			continue
		}
		if queue := pending[newIDs[j]]; len(queue) > 0 {
			from := queue[0]
			pending[newIDs[j]] = queue[1:]
			matchOld[from] = j
			moves = append(moves, MoveOp(before[from], after[j], from, j))
			continue
		}
		adds = append(adds, AddOp(after[j], j))
	}

	var deletes []Operation[T]
	for i, j := range matchOld {
		if j < 0 {
			deletes = append(deletes, DeleteOp(before[i], i))
		}
	}

	out := make([]Operation[T], 0, len(deletes)+len(adds)+len(moves)+len(updates))
	out = append(out, deletes...)
	out = append(out, adds...)
	out = append(out, moves...)
	out = append(out, updates...)
	if len(out) == 0 {
		return nil
	}
	return out
}

func identities[T Diffable[T]](list []T) []uint64 {
	ids := make([]uint64, len(list))
	for i, v := range list {
		ids[i] = v.Identity()
	}
	return ids
}

// lcs returns the index pairs of a longest common subsequence of a and b.
func lcs(a, b []uint64) [][2]int {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return nil
	}
	width := m + 1
	table := make([]int, (n+1)*width)
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			switch {
			case a[i] == b[j]:
				table[i*width+j] = table[(i+1)*width+j+1] + 1
			case table[(i+1)*width+j] >= table[i*width+j+1]:
				table[i*width+j] = table[(i+1)*width+j]
			default:
				table[i*width+j] = table[i*width+j+1]
			}
		}
	}

	pairs := make([][2]int, 0, table[0])
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			pairs = append(pairs, [2]int{i, j})
			i++
			j++
		case table[(i+1)*width+j] >= table[i*width+j+1]:
			i++
		default:
			j++
		}
	}
	return pairs
}
