// Package weighted draws ids in proportion to their weights.
package weighted

import "sort"

// Sample picks an id with probability weight/total. Ids are visited in
// sorted order so the same roll always selects the same id. Non-positive
// weights are never selected; an empty result means nothing was eligible.
func Sample(weights map[string]float64, roll float64) string {
	if len(weights) == 0 {
		return ""
	}
	ids := make([]string, 0, len(weights))
	var total float64
	for id, w := range weights {
		if w > 0 {
			ids = append(ids, id)
			total += w
		}
	}
	if total <= 0 || len(ids) == 0 {
		return ""
	}
	sort.Strings(ids)

	if roll < 0 {
		roll = 0
	}
	target := roll * total

	var acc float64
	for _, id := range ids {
		acc += weights[id]
		if target < acc {
			return id
		}
	}
	return ids[len(ids)-1]
}
