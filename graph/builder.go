package graph

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/karliky/turrero/source"
	"github.com/karliky/turrero/stats"
)

// Builder assembles graph nodes from classified snapshots.
type Builder struct {
	baseURL string
	parser  stats.Parser
}

// Option configures a Builder.
type Option func(*Builder)

// WithBaseURL overrides the canonical URL prefix prepended to thread ids.
func WithBaseURL(u string) Option {
	return func(b *Builder) { b.baseURL = u }
}

// WithStatsParser overrides the engagement stat parser, e.g. to enable
// strict parsing in validation runs.
func WithStatsParser(p stats.Parser) Option {
	return func(b *Builder) { b.parser = p }
}

// DefaultBaseURL is the canonical thread URL prefix.
const DefaultBaseURL = "https://twitter.com/Recuenco/status/"

// NewBuilder returns a Builder with the default lenient stat parser.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{baseURL: DefaultBaseURL}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Aggregate sums every tweet's engagement counters into per-thread totals.
// Summation is associative and commutative, so tweet order is irrelevant.
func (b *Builder) Aggregate(threads map[string]source.Thread) (map[string]Stats, error) {
	totals := make(map[string]Stats, len(threads))
	for id, thread := range threads {
		var agg Stats
		for _, tweet := range thread {
			replies, err := b.parser.Parse(tweet.Stats.Replies)
			if err != nil {
				return nil, fmt.Errorf("thread %s tweet %s replies: %w", id, tweet.ID, err)
			}
			likes, err := b.parser.Parse(tweet.Stats.Likes)
			if err != nil {
				return nil, fmt.Errorf("thread %s tweet %s likes: %w", id, tweet.ID, err)
			}
			bookmarks, err := b.parser.Parse(tweet.Stats.Bookmarks)
			if err != nil {
				return nil, fmt.Errorf("thread %s tweet %s bookmarks: %w", id, tweet.ID, err)
			}
			views, err := b.parser.Parse(tweet.Stats.Views)
			if err != nil {
				return nil, fmt.Errorf("thread %s tweet %s views: %w", id, tweet.ID, err)
			}
			agg.Replies += replies
			agg.Likes += likes
			agg.Bookmarks += bookmarks
			agg.Views += views
		}
		totals[id] = agg
	}
	return totals, nil
}

// ResolveRelations scans every tweet's embed metadata and builds the reverse
// map from a referenced id to the thread ids that embed it. The referencing
// node is always the embedding thread's id, not the individual tweet's.
// Repeated references from the same thread are kept as-is; whether duplicate
// edges carry meaning is still an open question with the data owner.
func (b *Builder) ResolveRelations(threads map[string]source.Thread) map[string][]string {
	related := make(map[string][]string)
	for id, thread := range threads {
		for _, tweet := range thread {
			if tweet.Metadata == nil || tweet.Metadata.Embed == nil {
				continue
			}
			embed := tweet.Metadata.Embed
			if embed.Type != embedType {
				continue
			}
			related[embed.ID] = append(related[embed.ID], id)
		}
	}
	return related
}

// Assemble joins the aggregated stats, summaries, categories, and resolved
// relations into the final node list. Nodes are sorted by id so repeated
// runs over identical inputs produce byte-identical output.
func (b *Builder) Assemble(threads map[string]source.Thread, summaries map[string]string, categories map[string][]string) ([]Node, error) {
	totals, err := b.Aggregate(threads)
	if err != nil {
		return nil, err
	}
	related := b.ResolveRelations(threads)

	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	nodes := make([]Node, 0, len(ids))
	for _, id := range ids {
		agg := totals[id]

		cats := categories[id]
		if cats == nil {
			cats = []string{}
		}

		relatedIDs := make([]string, 0)
		for _, rid := range related[id] {
			if rid == id {
				continue // no self-loops
			}
			relatedIDs = append(relatedIDs, rid)
		}
		sort.Strings(relatedIDs)

		nodes = append(nodes, Node{
			ID:             id,
			URL:            b.baseURL + id,
			Replies:        agg.Replies,
			Likes:          agg.Likes,
			Bookmarks:      agg.Bookmarks,
			Views:          agg.Views,
			Summary:        summaries[id],
			Categories:     cats,
			RelatedThreads: relatedIDs,
		})
	}

	slog.Debug("graph assembled", "nodes", len(nodes), "relations", len(related))
	return nodes, nil
}
