package domain

// Category ids of the built-in taxonomy.
const (
	TagSocial        = "social"
	TagSearch        = "search"
	TagSchoolWork    = "school_work"
	TagNews          = "news"
	TagEntertainment = "entertainment"
	TagShoppingMisc  = "shopping_misc"
)

// DefaultTag is the catch-all category.
const DefaultTag = TagShoppingMisc

// Category is one taxonomy bucket with its detection hints.
type Category struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Hosts    []string `json:"hosts"`
	Keywords []string `json:"keywords"`
}

// TagCount is a category with its item count.
type TagCount struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ScoredItem is a category sample with its interest score.
type ScoredItem struct {
	Host  string  `json:"host"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// TagSummary reports how much material a category has for a session.
type TagSummary struct {
	TagCount

	// Needs is how many more items would reach the recommended minimum.
	Needs int          `json:"needs"`
	Items []ScoredItem `json:"items"`
}

// HostCount is a host with its item count inside a category.
type HostCount struct {
	Host  string `json:"host"`
	Count int    `json:"count"`
}

// ReviewCategory groups reviewed items of one category by host.
type ReviewCategory struct {
	TagCount
	Hosts []HostCount `json:"hosts"`
}

// Review is the pre-upload breakdown shown to a user.
type Review struct {
	Items []CandidateItem  `json:"items"`
	Tags  []ReviewCategory `json:"tags"`
	Total int              `json:"total"`
}

// TypeMap exposes the site-type classification so clients can tag locally.
type TypeMap struct {
	// Hosts maps a host to its site type.
	Hosts map[string]string `json:"type_map"`

	// TypeToTag maps a site type to a category id.
	TypeToTag map[string]string `json:"type_to_tag"`
}
