package popularity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortEntries_DescendingWithIDTieBreak(t *testing.T) {
	entries := []Entry{
		{Member: "10", Score: 3},
		{Member: "2", Score: 5},
		{Member: "9", Score: 3},
		{Member: "1", Score: 1},
	}

	SortEntries(entries)

	assert.Equal(t, []Entry{
		{Member: "2", Score: 5},
		{Member: "9", Score: 3},
		{Member: "10", Score: 3},
		{Member: "1", Score: 1},
	}, entries)
}

func TestLess_NonNumericMembersCompareLexically(t *testing.T) {
	assert.True(t, Less(Entry{Member: "a", Score: 1}, Entry{Member: "b", Score: 1}))
	assert.False(t, Less(Entry{Member: "b", Score: 1}, Entry{Member: "a", Score: 1}))
}

func TestLess_MixedMembersAreTransitive(t *testing.T) {
	at := func(m string) Entry { return Entry{Member: m, Score: 1} }

	assert.True(t, Less(at("2"), at("10")))
	assert.True(t, Less(at("10"), at("1a")))
	assert.True(t, Less(at("2"), at("1a")))
	assert.False(t, Less(at("1a"), at("2")))

	entries := []Entry{at("1a"), at("10"), at("b"), at("2")}
	SortEntries(entries)
	assert.Equal(t, []Entry{at("2"), at("10"), at("1a"), at("b")}, entries)
}
