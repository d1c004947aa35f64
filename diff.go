package reactive

import (
	"fmt"
	"reflect"
)

const (
	opInsert = "Insert"
	opRemove = "Remove"
)

// EditOp describes a single item operation turning one sequence into another.
// Operations are meant to be applied in the order they are returned: Index
// is a position in the sequence as it stands when the operation is applied.
// For insertions, Item is the index of the inserted item in the target.
type EditOp struct {
	Operation string
	Index     int
	Item      int
}

// MyersDiff returns the shortest edit script turning a into b.
// The script is produced from the end of the sequences towards their start,
// which keeps every Index valid without bookkeeping.
func MyersDiff(a, b []string) []EditOp {
	n, m := len(a), len(b)
	if n == 0 && m == 0 {
		return nil
	}
	max := n + m
	offset := max + 1
	v := make([]int, 2*max+3)
	var trace [][]int

	for d := 0; d <= max; d++ {
		snapshot := make([]int, len(v))
		copy(snapshot, v)
		trace = append(trace, snapshot)

		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
				x = v[offset+k+1]
			} else {
				x = v[offset+k-1] + 1
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x, y = x+1, y+1
			}
			v[offset+k] = x
			if x >= n && y >= m {
				return backtrack(trace, n, m, offset)
			}
		}
	}
	return nil
}

func backtrack(trace [][]int, n, m, offset int) []EditOp {
	var ops []EditOp
	x, y := n, m
	for d := len(trace) - 1; d >= 0; d-- {
		v := trace[d]
		k := x - y

		var prevK int
		if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := v[offset+prevK]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x, y = x-1, y-1
		}
		if d > 0 {
			if x == prevX {
				ops = append(ops, EditOp{Operation: opInsert, Index: prevX, Item: prevY})
			} else {
				ops = append(ops, EditOp{Operation: opRemove, Index: prevX})
			}
		}
		x, y = prevX, prevY
	}
	return ops
}

func diffItems(a, b []any) []EditOp {
	return MyersDiff(identities(a), identities(b))
}

func identities(items []any) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = identity(item)
	}
	return ids
}

// identity returns a key under which two items are considered the same
// item. References (pointers, maps, slices, funcs) are compared by address,
// anything else by type and value.
func identity(v any) string {
	if v == nil {
		return "nil"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return fmt.Sprintf("%T@%x", v, rv.Pointer())
	}
	return fmt.Sprintf("%T:%#v", v, v)
}
