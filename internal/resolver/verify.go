package resolver

import (
	"fmt"
	"slices"
	"sort"

	"github.com/vk/shaderplan/internal/element"
	"github.com/vk/shaderplan/internal/model"
)

// Verify checks a plan against the guarantees Resolve makes: no pass shares
// a slot with a live pass, every identity is resolved once, every sampled
// slot has been rendered earlier in render order and every content index is
// in range.
func Verify(plan *model.Plan) error {
	if plan == nil || plan.Root == nil {
		return nil
	}
	v := &verifier{plan: plan, resolved: make(map[element.ID]bool)}
	return v.visit(plan.Root, nil, nil)
}

type verifier struct {
	plan     *model.Plan
	resolved map[element.ID]bool
}

// visit checks n and the passes below it. written holds the slots of the
// ancestors' context children that are already rendered when n's subtree
// starts rendering.
func (v *verifier) visit(n *model.ExecutionNode, ancestors []*model.ExecutionNode, written []int) error {
	fail := func(kind error, uniform, detail string) error {
		return &model.Error{Kind: kind, Shader: n.Shader, Uniform: uniform, Detail: detail}
	}

	if len(ancestors) > 0 {
		if n.ID != 0 {
			if v.resolved[n.ID] {
				return fail(model.ErrDuplicateEvaluation, "", fmt.Sprintf("pass %d is resolved more than once", n.ID))
			}
			v.resolved[n.ID] = true
		}
		if n.Slot < 0 {
			return fail(model.ErrSlotCollision, "", fmt.Sprintf("pass %d renders into reserved slot %d", n.ID, n.Slot))
		}
		for _, a := range ancestors {
			if a.Slot == n.Slot {
				return fail(model.ErrSlotCollision, "", fmt.Sprintf("pass %d renders into slot %d read by an ancestor", n.ID, n.Slot))
			}
			for _, other := range rendered(a) {
				if other != n && other.Slot == n.Slot {
					return fail(model.ErrSlotCollision, "", fmt.Sprintf("pass %d and pass %d both render into slot %d", n.ID, other.ID, n.Slot))
				}
			}
		}
	}

	// Context children render first, in order, and each one may sample the
	// context children before it. Children come next and see the whole
	// context. n itself renders last.
	path := append(ancestors[:len(ancestors):len(ancestors)], n)
	scope := slices.Clone(written)
	for _, c := range n.ContextChildren {
		if err := v.visit(c, path, scope); err != nil {
			return err
		}
		scope = append(scope, c.Slot)
	}
	for _, c := range n.Children {
		if err := v.visit(c, path, scope); err != nil {
			return err
		}
	}
	for _, c := range n.Children {
		scope = append(scope, c.Slot)
	}

	for _, name := range sortedNames(n.Uniforms) {
		switch u := n.Uniforms[name].(type) {
		case model.Framebuffer:
			if !slices.Contains(scope, u.Slot) {
				return fail(model.ErrSlotCollision, name, fmt.Sprintf("slot %d is not rendered before this pass", u.Slot))
			}
		case model.Content:
			if u.Index < 0 || u.Index >= len(v.plan.Contents) {
				return fail(model.ErrDanglingContentRef, name, fmt.Sprintf("content index %d out of range", u.Index))
			}
		case model.ContentRef:
			return fail(model.ErrDanglingContentRef, name, fmt.Sprintf("content %d is unresolved", u.ID))
		case model.FramebufferRef:
			return fail(model.ErrSlotCollision, name, fmt.Sprintf("pass %d is unresolved", u.ID))
		}
	}
	return nil
}

// rendered lists the passes n renders before itself.
func rendered(n *model.ExecutionNode) []*model.ExecutionNode {
	out := make([]*model.ExecutionNode, 0, len(n.ContextChildren)+len(n.Children))
	out = append(out, n.ContextChildren...)
	return append(out, n.Children...)
}

func sortedNames(uniforms map[string]model.Value) []string {
	names := make([]string, 0, len(uniforms))
	for name := range uniforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
