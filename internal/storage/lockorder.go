package storage

import "slices"

// LockOrder returns ids sorted ascending with duplicates removed. Every backend acquires
// account locks in this order so opposite-direction transfers cannot deadlock.
func LockOrder(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
