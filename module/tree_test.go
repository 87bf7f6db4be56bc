package module

import (
	"testing"

	"github.com/robbyt/go-scripttree/engines/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTree_AddModule(t *testing.T) {
	t.Parallel()

	eng, _ := newMockEngine()
	a := newModule(t, eng, "a", "")
	b := newModule(t, eng, "b", "")
	tree := NewTree("root")

	require.True(t, tree.AddModule(a))
	require.True(t, tree.AddModule(b))
	assert.False(t, tree.AddModule(a), "same instance twice")
	assert.False(t, tree.AddModule(nil))
	assert.Equal(t, []*ScriptModule{a, b}, tree.Modules())

	// distinct instance with the same name is a different member
	a2 := newModule(t, eng, "a", "")
	require.True(t, tree.AddModule(a2))
	assert.Equal(t, 3, tree.Len())
	assert.Equal(t, 2, tree.Index(a2))
}

func TestTree_NewTreeDropsRepeats(t *testing.T) {
	t.Parallel()

	eng, _ := newMockEngine()
	a := newModule(t, eng, "a", "")
	tree := NewTree("root", a, a, nil)
	assert.Equal(t, 1, tree.Len())
	assert.Equal(t, "root", tree.Name())
	assert.Equal(t, "module.Tree{root}", tree.String())
}

func TestTree_RemoveAndClear(t *testing.T) {
	t.Parallel()

	eng, _ := newMockEngine()
	a := newModule(t, eng, "a", "")
	b := newModule(t, eng, "b", "")
	c := newModule(t, eng, "c", "")
	tree := NewTree("root", a, b, c)

	require.True(t, tree.RemoveModule(b))
	assert.False(t, tree.RemoveModule(b))
	assert.Equal(t, []*ScriptModule{a, c}, tree.Modules())
	assert.Equal(t, -1, tree.Index(b))

	tree.ClearModules()
	assert.Zero(t, tree.Len())
	assert.Equal(t, "a", a.Name(), "modules themselves are untouched")
}

func TestTree_ModulesIsSnapshot(t *testing.T) {
	t.Parallel()

	eng, _ := newMockEngine()
	a := newModule(t, eng, "a", "")
	tree := NewTree("root", a)

	mods := tree.Modules()
	mods[0] = nil
	assert.Equal(t, a, tree.Modules()[0])
}

func TestTree_Find(t *testing.T) {
	t.Parallel()

	eng, _ := newMockEngine()
	a := newModule(t, eng, "a", "")
	a1 := newModule(t, eng, "a1", "")
	b := newModule(t, eng, "b", "")
	b1 := newModule(t, eng, "b1", "")
	b2 := newModule(t, eng, "Deep", "")
	a.AddModule(a1)
	b.AddModule(b1)
	b1.AddModule(b2)
	tree := NewTree("root", a, b)

	tests := []struct {
		name string
		find string
		want Node
	}{
		{name: "self", find: "ROOT", want: tree},
		{name: "first child", find: "a", want: a},
		{name: "grandchild of first child", find: "A1", want: a1},
		{name: "second child", find: "b", want: b},
		{name: "deep in second subtree", find: "deep", want: b2},
		{name: "absent", find: "zzz", want: nil},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := tree.Find(tt.find)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.Same(t, tt.want, got)
		})
	}

	t.Run("module find returns module", func(t *testing.T) {
		got := b.Find("b")
		assert.Same(t, b, got)
	})

	t.Run("first match wins", func(t *testing.T) {
		dup := newModule(t, eng, "b1", "")
		a.AddModule(dup)
		assert.Same(t, dup, tree.Find("b1"))
	})
}

func TestTree_FindCycleTerminates(t *testing.T) {
	t.Parallel()

	eng, _ := newMockEngine()
	a := newModule(t, eng, "a", "")
	b := newModule(t, eng, "b", "")
	a.AddModule(b)
	b.AddModule(a)

	assert.Nil(t, a.Find("missing"))
	assert.Same(t, b, a.Find("b"))
}

func TestTree_FindByCallable(t *testing.T) {
	t.Parallel()

	eng, _ := newMockEngine()
	a := newModule(t, eng, "a", "")
	tree := NewTree("root", a)

	assert.Same(t, a, tree.FindByCallable(mocks.NewCallable("A")))
	assert.Nil(t, tree.FindByCallable(mocks.NewCallable("other")))
	assert.Nil(t, tree.FindByCallable(nil))

	var typedNil *mocks.Callable
	assert.Nil(t, tree.FindByCallable(typedNil))
}
