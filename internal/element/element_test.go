package element

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryAssignsMonotonicIDs(t *testing.T) {
	f := NewFactory()

	p := f.Pass(1, nil)
	u := f.Uniform("x", 1.0)
	c := f.Content("video", Props{"src": "a.mp4"})
	fr := f.Fragment(c)

	assert.Equal(t, ID(1), p.ID())
	assert.Equal(t, ID(2), u.ID())
	assert.Equal(t, ID(3), c.ID())
	assert.Equal(t, ID(4), fr.ID())
}

func TestFactoryConcurrentIDsAreUnique(t *testing.T) {
	f := NewFactory()
	var mu sync.Mutex
	seen := make(map[ID]struct{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := f.NewID()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 400)
}

func TestKinds(t *testing.T) {
	f := NewFactory()
	testCases := []struct {
		node Node
		kind Kind
		name string
	}{
		{f.Pass(1, nil), KindPass, "pass"},
		{f.Uniform("u", nil), KindUniform, "uniform"},
		{f.Component(nil, nil), KindComponent, "component"},
		{f.Content("canvas", nil), KindContent, "content"},
		{f.Fragment(), KindFragment, "fragment"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.kind, tc.node.Kind())
			assert.Equal(t, tc.name, tc.kind.String())
			assert.Contains(t, tc.node.String(), tc.name+"#")
		})
	}
	assert.Equal(t, "kind(99)", Kind(99).String())
}

func TestLabelOverridesDescription(t *testing.T) {
	f := NewFactory()
	p := f.Pass(1, nil)
	p.Label = "pass.main"
	assert.Equal(t, "pass.main", p.String())
}

func TestComponentExpand(t *testing.T) {
	f := NewFactory()
	inner := f.Pass(1, nil)

	var gotProps Props
	c := f.Component(Props{"factor": 2.0}, func(props Props) ([]Node, error) {
		gotProps = props
		return []Node{inner}, nil
	})

	children, err := c.Expand()
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Same(t, inner, children[0])
	assert.Equal(t, Props{"factor": 2.0}, gotProps)

	empty := f.Component(nil, nil)
	children, err = empty.Expand()
	require.NoError(t, err)
	assert.Empty(t, children)

	var _ Delegate = c
	var _ Delegate = f.Fragment()
}

func TestBool(t *testing.T) {
	assert.True(t, *Bool(true))
	assert.False(t, *Bool(false))
}
