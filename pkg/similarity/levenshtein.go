// Package similarity computes edit distance between package names. It is
// used to flag requested packages whose names are suspiciously close to
// well-known ones (typosquatting).
package similarity

// Distance returns the Levenshtein distance between a and b, computed with a
// single-row dynamic program so memory stays proportional to the shorter
// input.
//
// A maxDistance greater than zero enables early termination: if the two
// lengths already differ by at least maxDistance the difference is returned
// without further work, and during computation the current row minimum is
// returned as soon as it reaches maxDistance. In both cases the returned
// value is a lower bound on the true distance; whenever the true distance is
// below maxDistance the exact distance is returned.
func Distance(a, b string, maxDistance int) int {
	ra, rb := []rune(a), []rune(b)

	// Keep the shorter string on the row axis.
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}

	if len(ra) == 0 {
		return len(rb)
	}

	if maxDistance > 0 && len(rb)-len(ra) >= maxDistance {
		return len(rb) - len(ra)
	}

	row := make([]int, len(ra)+1)
	for i := range row {
		row[i] = i
	}

	for j := 1; j <= len(rb); j++ {
		prev := row[0] // row[0] from the previous iteration
		row[0] = j
		rowMin := j

		for i := 1; i <= len(ra); i++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			d := min(row[i]+1, row[i-1]+1, prev+cost)
			prev = row[i]
			row[i] = d

			if d < rowMin {
				rowMin = d
			}
		}

		// Every entry can only grow by one per row, so once the whole
		// row is at maxDistance the final distance cannot be smaller.
		if maxDistance > 0 && rowMin >= maxDistance {
			return rowMin
		}
	}

	return row[len(ra)]
}
