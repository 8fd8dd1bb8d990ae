package videotree

// Pagination selects one page of a listing. Page is 1-based.
type Pagination struct {
	Page int `json:"page"`
	Max  int `json:"max"`
}

// Skip returns the number of rows preceding the page.
func (p Pagination) Skip() int {
	return p.Max * (p.Page - 1)
}

// Limit returns the page size.
func (p Pagination) Limit() int {
	return p.Max
}

// ListItem is one tree in a listing: metadata plus its root node only.
type ListItem struct {
	ID          string          `json:"id"`
	Root        *VideoNode      `json:"root"`
	Info        TreeInfo        `json:"info"`
	Data        TreeData        `json:"data"`
	Creator     *CreatorProfile `json:"creator,omitempty"`
	IsFavorited bool            `json:"is_favorited"`
	History     *History        `json:"history,omitempty"`
	Score       *float64        `json:"score,omitempty"` // Text relevance when searching
}

// ListResult is a page of trees plus the total number of matches.
type ListResult struct {
	Videos []ListItem `json:"videos"`
	Count  int64      `json:"count"`
}
