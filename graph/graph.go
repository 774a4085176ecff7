// Package graph derives the per-thread relationship graph from classified
// archive snapshots: per-thread engagement totals, embed-based relations
// between threads, and the final assembled graph nodes.
package graph

// Stats holds aggregated engagement totals for one thread.
type Stats struct {
	Replies   int `json:"replies"`
	Likes     int `json:"likes"`
	Bookmarks int `json:"bookmarks"`
	Views     int `json:"views"`
}

// Node is one assembled graph record, serialized into the output artifact.
type Node struct {
	ID             string   `json:"id"`
	URL            string   `json:"url"`
	Replies        int      `json:"replies"`
	Likes          int      `json:"likes"`
	Bookmarks      int      `json:"bookmarks"`
	Views          int      `json:"views"`
	Summary        string   `json:"summary"`
	Categories     []string `json:"categories"`
	RelatedThreads []string `json:"related_threads"`
}

// embedType is the metadata marker for an embedded tweet reference.
const embedType = "embed"
