// Package knowledge implements a keyword-triggered knowledge base that agents
// query through a tool.
//
// Entries are matched against the query by their trigger keys and title; no
// embeddings or external index are involved.
package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/agentkit/tool"
)

const (
	// DefaultToolName is the tool name used by ToTool when none is given.
	DefaultToolName = "search_knowledge_base"
	// DefaultMaxResults bounds Search results.
	DefaultMaxResults = 5
	// NoResults is returned when nothing matches.
	NoResults = "No relevant knowledge found."
)

// Entry is one knowledge base article.
type Entry struct {
	Title    string   `yaml:"title" json:"title"`
	Content  string   `yaml:"content" json:"content"`
	Keys     []string `yaml:"keys" json:"keys,omitempty"`
	Priority int      `yaml:"priority" json:"priority,omitempty"`
	Tags     []string `yaml:"tags" json:"tags,omitempty"`
}

// Match is a scored search hit.
type Match struct {
	Entry Entry
	Score int
}

// Base is an in-memory knowledge base. It is safe for concurrent use.
type Base struct {
	mu      sync.RWMutex
	entries []Entry
}

// New creates a knowledge base holding entries.
func New(entries ...Entry) *Base {
	return &Base{entries: append([]Entry(nil), entries...)}
}

// Add appends entries.
func (b *Base) Add(entries ...Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, entries...)
}

// Len returns the number of entries.
func (b *Base) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Match scores every entry against query (case-insensitive): +1 for each key
// contained in the query, +2 when the title is contained. Entries with a
// positive score get their priority added and are returned best first; ties
// keep insertion order. A non-positive maxResults uses DefaultMaxResults.
func (b *Base) Match(query string, maxResults int) []Match {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	q := strings.ToLower(query)

	b.mu.RLock()
	var matches []Match
	for _, e := range b.entries {
		score := 0
		for _, k := range e.Keys {
			if strings.Contains(q, strings.ToLower(k)) {
				score++
			}
		}
		if strings.Contains(q, strings.ToLower(e.Title)) {
			score += 2
		}
		if score > 0 {
			matches = append(matches, Match{Entry: e, Score: score + e.Priority})
		}
	}
	b.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	return matches
}

// Search returns the top matches formatted as "## title\ncontent" blocks
// separated by "\n\n---\n\n", or NoResults.
func (b *Base) Search(query string, maxResults int) string {
	matches := b.Match(query, maxResults)
	if len(matches) == 0 {
		return NoResults
	}

	blocks := make([]string, len(matches))
	for i, m := range matches {
		blocks[i] = fmt.Sprintf("## %s\n%s", m.Entry.Title, m.Entry.Content)
	}

	return strings.Join(blocks, "\n\n---\n\n")
}

type searchArgs struct {
	Query      string `json:"query" description:"Search query"`
	MaxResults int    `json:"max_results" description:"Maximum number of results (default: 5)" default:"5"`
}

// ToTool exposes the knowledge base as a tool. An empty name uses
// DefaultToolName.
func (b *Base) ToTool(name string) *tool.Definition {
	if name == "" {
		name = DefaultToolName
	}

	return tool.NewTyped(name,
		"Search the knowledge base for relevant information. Use this when the user asks a question that might be answered by the knowledge base.",
		func(_ context.Context, args searchArgs) (any, error) {
			return b.Search(args.Query, args.MaxResults), nil
		})
}
