package resolver

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/shaderplan/internal/ctxlog"
	"github.com/vk/shaderplan/internal/element"
	"github.com/vk/shaderplan/internal/model"
)

func ctxLogger() *slog.Logger {
	return ctxlog.FromContext(context.Background())
}

func exec(id, slot int, uniforms map[string]model.Value, children ...*model.ExecutionNode) *model.ExecutionNode {
	return &model.ExecutionNode{ID: element.ID(id), Shader: 1, Slot: slot, Uniforms: uniforms, Children: children}
}

func TestVerify(t *testing.T) {
	testCases := []struct {
		name    string
		plan    *model.Plan
		wantErr error
	}{
		{
			name: "valid",
			plan: &model.Plan{
				Root:     exec(1, model.RootSlot, map[string]model.Value{"a": model.Framebuffer{Slot: 0}, "c": model.Content{Index: 0}}, exec(2, 0, nil)),
				Contents: []model.ContentUse{{ID: 9}},
			},
		},
		{
			name: "child shares parent slot",
			plan: &model.Plan{
				Root: exec(1, model.RootSlot, nil, exec(2, 0, nil, exec(3, 0, nil))),
			},
			wantErr: model.ErrSlotCollision,
		},
		{
			name: "nested pass overwrites an uncle",
			plan: &model.Plan{
				Root: exec(1, model.RootSlot, nil, exec(2, 0, nil, exec(4, 1, nil)), exec(3, 1, nil)),
			},
			wantErr: model.ErrSlotCollision,
		},
		{
			name: "nested pass renders into the output slot",
			plan: &model.Plan{
				Root: exec(1, model.RootSlot, nil, exec(2, model.RootSlot, nil)),
			},
			wantErr: model.ErrSlotCollision,
		},
		{
			name: "same identity resolved twice",
			plan: &model.Plan{
				Root: exec(1, model.RootSlot, nil, exec(2, 0, nil, exec(5, 2, nil)), exec(3, 1, nil, exec(5, 2, nil))),
			},
			wantErr: model.ErrDuplicateEvaluation,
		},
		{
			name: "samples a slot nobody renders",
			plan: &model.Plan{
				Root: exec(1, model.RootSlot, map[string]model.Value{"a": model.Framebuffer{Slot: 3}}, exec(2, 0, nil)),
			},
			wantErr: model.ErrSlotCollision,
		},
		{
			name: "content index out of range",
			plan: &model.Plan{
				Root: exec(1, model.RootSlot, map[string]model.Value{"c": model.Content{Index: 1}}),
			},
			wantErr: model.ErrDanglingContentRef,
		},
		{
			name: "unresolved content",
			plan: &model.Plan{
				Root: exec(1, model.RootSlot, map[string]model.Value{"c": model.ContentRef{ID: 4}}),
			},
			wantErr: model.ErrDanglingContentRef,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Verify(tc.plan)
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func withContext(n *model.ExecutionNode, shared ...*model.ExecutionNode) *model.ExecutionNode {
	n.ContextChildren = shared
	return n
}

func TestVerify_RenderOrder(t *testing.T) {
	testCases := []struct {
		name    string
		root    *model.ExecutionNode
		wantErr bool
	}{
		{
			name: "context pass samples an earlier context pass",
			root: withContext(exec(1, model.RootSlot, nil),
				exec(3, 0, nil),
				exec(2, 1, map[string]model.Value{"src": model.Framebuffer{Slot: 0}}),
			),
		},
		{
			name: "context pass samples a later context pass",
			root: withContext(exec(1, model.RootSlot, nil),
				exec(2, 0, map[string]model.Value{"src": model.Framebuffer{Slot: 1}}),
				exec(3, 1, nil),
			),
			wantErr: true,
		},
		{
			name: "child samples a sibling child",
			root: exec(1, model.RootSlot, nil,
				exec(2, 0, nil),
				exec(3, 1, map[string]model.Value{"src": model.Framebuffer{Slot: 0}}),
			),
			wantErr: true,
		},
		{
			name: "context pass samples a child of its parent",
			root: withContext(exec(1, model.RootSlot, nil, exec(3, 1, nil)),
				exec(2, 0, map[string]model.Value{"src": model.Framebuffer{Slot: 1}}),
			),
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Verify(&model.Plan{Root: tc.root})
			if !tc.wantErr {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, model.ErrSlotCollision)
			assert.Contains(t, err.Error(), "is not rendered before this pass")
		})
	}
}

func TestVerify_ContextSlotsVisibleToDescendants(t *testing.T) {
	shared := exec(5, 0, nil)
	mid := exec(2, 1, map[string]model.Value{"src": model.Framebuffer{Slot: 0}})
	root := exec(1, model.RootSlot, map[string]model.Value{"a": model.Framebuffer{Slot: 1}}, mid)
	root.ContextChildren = []*model.ExecutionNode{shared}

	require.NoError(t, Verify(&model.Plan{Root: root}))
	require.NoError(t, Verify(nil))
}
