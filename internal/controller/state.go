package controller

import (
	"slices"

	"github.com/sakif/user-directory/internal/model"
)

// State is a point-in-time copy of the controller's query and result state,
// handed to the presentation layer. Changing it never affects the controller.
type State struct {
	SearchText  string       `json:"searchText"`
	Offset      int          `json:"offset"`
	PageSize    int          `json:"pageSize"`
	Items       []model.User `json:"items"`
	ExpandedIDs []int64      `json:"expandedIds"` // ascending
	Loading     bool         `json:"loading"`
	LastError   string       `json:"lastError,omitempty"`
	// TotalUsers is what the source reported for the current query, or 0.
	TotalUsers int `json:"totalUsers"`
}

// IsExpanded reports whether the panel for id is open.
func (s State) IsExpanded(id int64) bool {
	_, found := slices.BinarySearch(s.ExpandedIDs, id)
	return found
}

// CanLoadMore reports whether the "load more" action should be offered:
// never while loading, and never on top of an error.
func (s State) CanLoadMore() bool {
	return !s.Loading && s.LastError == ""
}

func (c *Controller) snapshotLocked() State {
	expanded := make([]int64, 0, len(c.result.expanded))
	for id := range c.result.expanded {
		expanded = append(expanded, id)
	}
	slices.Sort(expanded)

	items := slices.Clone(c.result.items)
	if items == nil {
		items = []model.User{}
	}

	return State{
		SearchText:  c.query.searchText,
		Offset:      c.query.offset,
		PageSize:    c.query.pageSize,
		Items:       items,
		ExpandedIDs: expanded,
		Loading:     c.result.loading,
		LastError:   c.result.lastError,
		TotalUsers:  c.result.totalUsers,
	}
}
