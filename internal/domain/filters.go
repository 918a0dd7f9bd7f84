package domain

// SearchFilters is transient UI state, never persisted. Query is always a
// string; CoerceQuery guards the merge path.
type SearchFilters struct {
	Query    string   `json:"query"`
	Category string   `json:"category,omitempty"`
	Type     string   `json:"type,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Sort     string   `json:"sort,omitempty"`
}

// FiltersPatch is a partial update. Nil fields are left unchanged. Query is
// deliberately untyped: callers have been known to pass non-string values
// (an event payload) and the merge must stay total.
type FiltersPatch struct {
	Query    any       `json:"query,omitempty"`
	Category *string   `json:"category,omitempty"`
	Type     *string   `json:"type,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
	Sort     *string   `json:"sort,omitempty"`
}

// CoerceQuery forces a patch query value to a string. Anything that is not
// already a string becomes the empty string.
func CoerceQuery(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
