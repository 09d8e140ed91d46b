package knowledge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func supportBase() *Base {
	return New(
		Entry{Title: "Refund Policy", Content: "Refunds within 30 days.", Keys: []string{"refund", "money back"}},
		Entry{Title: "Shipping", Content: "Ships in 2 days.", Keys: []string{"delivery", "ship"}},
		Entry{Title: "Warranty", Content: "One year warranty.", Keys: []string{"broken", "repair"}, Priority: 5},
	)
}

func TestSearch_Scoring(t *testing.T) {
	kb := supportBase()

	matches := kb.Match("My item is BROKEN, can I get a refund?", 5)
	require.Len(t, matches, 2)
	assert.Equal(t, "Warranty", matches[0].Entry.Title)
	assert.Equal(t, 6, matches[0].Score)
	assert.Equal(t, "Refund Policy", matches[1].Entry.Title)
	assert.Equal(t, 1, matches[1].Score)
}

func TestSearch_TitleBonus(t *testing.T) {
	kb := supportBase()

	matches := kb.Match("what is your refund policy", 5)
	require.Len(t, matches, 1)
	assert.Equal(t, 3, matches[0].Score)
}

func TestSearch_Format(t *testing.T) {
	kb := supportBase()

	assert.Equal(t, "## Shipping\nShips in 2 days.", kb.Search("when will it ship", 5))
	assert.Equal(t, "## Warranty\nOne year warranty.\n\n---\n\n## Refund Policy\nRefunds within 30 days.",
		kb.Search("broken, refund", 5))
	assert.Equal(t, NoResults, kb.Search("weather today", 5))
}

func TestSearch_MaxResults(t *testing.T) {
	kb := supportBase()

	matches := kb.Match("refund ship broken", 1)
	require.Len(t, matches, 1)
	assert.Equal(t, "Warranty", matches[0].Entry.Title)

	assert.Len(t, kb.Match("refund ship broken", 0), 3)
}

func TestAdd(t *testing.T) {
	kb := New()
	assert.Equal(t, NoResults, kb.Search("anything", 5))

	kb.Add(Entry{Title: "Hours", Content: "9-5", Keys: []string{"open"}})
	assert.Equal(t, 1, kb.Len())
	assert.Equal(t, "## Hours\n9-5", kb.Search("when are you open", 5))
}

func TestToTool(t *testing.T) {
	kb := supportBase()

	def := kb.ToTool("")
	assert.Equal(t, DefaultToolName, def.Name())
	assert.Equal(t, "faq", kb.ToTool("faq").Name())

	out, err := def.Call(context.Background(), map[string]any{"query": "ship"})
	require.NoError(t, err)
	assert.Equal(t, "## Shipping\nShips in 2 days.", out)
}
