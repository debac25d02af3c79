package analytics

import (
	"sort"

	"github.com/xxxsen/docqa/internal/model"
)

const DefaultTopN = 5

// TopQueries counts entries by exact query text and returns the most frequent
// ones. Equal counts keep the order in which the query first appeared.
func TopQueries(entries []model.QueryLogEntry, limit int) []model.TopQuery {
	if limit <= 0 {
		limit = DefaultTopN
	}
	index := make(map[string]int)
	top := make([]model.TopQuery, 0)
	for _, entry := range entries {
		if i, ok := index[entry.Query]; ok {
			top[i].Count++
			continue
		}
		index[entry.Query] = len(top)
		top = append(top, model.TopQuery{Query: entry.Query, Count: 1})
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Count > top[j].Count
	})
	if len(top) > limit {
		top = top[:limit]
	}
	return top
}
