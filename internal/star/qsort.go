// Copyright (C) 2024 Sundai Club
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package star

// Reports whether a ranks before b, ordering by descending value.
// The flat data array index breaks ties for a deterministic total order
func starBefore(a, b Star) bool {
	if a.Value != b.Value {
		return a.Value > b.Value
	}
	return a.Index < b.Index
}

// Sort an array of stars in descending order, based on value.
// Array must not contain IEEE NaN
func QSortStarsDesc(a []Star) {
	if len(a) > 1 {
		index := QPartitionStarsDesc(a)
		QSortStarsDesc(a[:index+1])
		QSortStarsDesc(a[index+1:])
	}
}

// Partitions an array of stars with the middle pivot element, and returns the pivot index.
// Values ranking before the pivot are moved left of the pivot, those ranking after are moved right.
// Array must not contain IEEE NaN
func QPartitionStarsDesc(a []Star) int {
	left, right := 0, len(a)-1
	mid := (left + right) >> 1
	pivot := a[mid]
	l := left - 1
	r := right + 1
	for {
		for {
			l++
			if !starBefore(a[l], pivot) {
				break
			}
		}
		for {
			r--
			if !starBefore(pivot, a[r]) {
				break
			}
		}
		if l >= r {
			return r
		}
		a[l], a[r] = a[r], a[l]
	}
}
