package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type child struct {
	ID    int64
	Label string
	Live  bool
}

func childLabel(c child) string { return c.Label }

// store is an in-memory owner with soft-deleted children.
type store struct {
	nextID   int64
	children []child
}

func newStore(labels ...string) *store {
	s := &store{}
	for _, l := range labels {
		s.nextID++
		s.children = append(s.children, child{ID: s.nextID, Label: l, Live: true})
	}
	return s
}

func (s *store) live() []child {
	var out []child
	for _, c := range s.children {
		if c.Live {
			out = append(out, c)
		}
	}
	return out
}

func (s *store) Insert(_ context.Context, label string) error {
	s.nextID++
	s.children = append(s.children, child{ID: s.nextID, Label: label, Live: true})
	return nil
}

func (s *store) Remove(_ context.Context, c child) error {
	for i := range s.children {
		if s.children[i].ID == c.ID {
			s.children[i].Live = false
		}
	}
	return nil
}

func liveLabels(s *store) []string {
	var out []string
	for _, c := range s.live() {
		out = append(out, c.Label)
	}
	return out
}

func TestDiff_AddsAndRemovesByLabel(t *testing.T) {
	current := []child{{ID: 1, Label: "camping"}, {ID: 2, Label: "river"}, {ID: 3, Label: "Forest"}}

	res := Diff([]string{"sea", "camping", "forest"}, current, childLabel)

	assert.Equal(t, []string{"sea", "forest"}, res.ToAdd)
	assert.Equal(t, []child{{ID: 2, Label: "river"}, {ID: 3, Label: "Forest"}}, res.ToRemove)
}

func TestDiff_EmptyDesiredRemovesEverything(t *testing.T) {
	current := []child{{ID: 1, Label: "a"}, {ID: 2, Label: "b"}}

	res := Diff(nil, current, childLabel)

	assert.Empty(t, res.ToAdd)
	assert.Equal(t, current, res.ToRemove)
}

func TestDiff_DuplicateDesiredAddedOnce(t *testing.T) {
	res := Diff([]string{"x", "y", "x"}, []child{}, childLabel)

	assert.Equal(t, []string{"x", "y"}, res.ToAdd)
}

func TestSync_SecondRunIsEmpty(t *testing.T) {
	cases := []struct {
		name    string
		initial []string
		desired []string
	}{
		{"disjoint", []string{"a", "b"}, []string{"c", "d"}},
		{"overlap", []string{"a", "b", "c"}, []string{"b", "c", "e"}},
		{"clear", []string{"a"}, nil},
		{"from empty", nil, []string{"a", "a", "b"}},
		{"duplicates in current", []string{"a", "a", "b"}, []string{"a"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(tc.initial...)

			first, err := Sync(ctx, tc.desired, s.live(), childLabel, s)
			require.NoError(t, err)

			second, err := Sync(ctx, tc.desired, s.live(), childLabel, s)
			require.NoError(t, err)
			assert.True(t, second.IsEmpty(), "second run: %+v (first: %+v)", second, first)

			third := Diff(tc.desired, s.live(), childLabel)
			assert.True(t, third.IsEmpty())
		})
	}
}

func TestSync_RemovalIsLogical(t *testing.T) {
	s := newStore("a", "b")

	_, err := Sync(context.Background(), []string{"b"}, s.live(), childLabel, s)
	require.NoError(t, err)

	assert.Len(t, s.children, 2)
	assert.Equal(t, []string{"b"}, liveLabels(s))
}

func TestApply_StopsOnInsertError(t *testing.T) {
	boom := errors.New("boom")
	removed := 0
	a := Funcs[child]{
		InsertFn: func(context.Context, string) error { return boom },
		RemoveFn: func(context.Context, child) error { removed++; return nil },
	}

	err := Apply(context.Background(), Result[child]{ToAdd: []string{"x"}, ToRemove: []child{{ID: 1}}}, a)

	assert.ErrorIs(t, err, boom)
	assert.Zero(t, removed)
}
