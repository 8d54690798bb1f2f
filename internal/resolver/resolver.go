package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/vk/shaderplan/internal/annotate"
	"github.com/vk/shaderplan/internal/ctxlog"
	"github.com/vk/shaderplan/internal/element"
	"github.com/vk/shaderplan/internal/model"
)

// shared is a pass promoted into a node's context, with the slot it renders
// into.
type shared struct {
	id   element.ID
	slot int
}

// record is a nested pass the current node is responsible for.
type record struct {
	id      element.ID
	uniform string
	node    *annotate.Node
	slot    int
	target  *[]*model.ExecutionNode
}

// resolution holds the state of one Resolve call.
type resolution struct {
	logger       *slog.Logger
	contentIndex map[element.ID]int
	images       []model.Image
	imageSeen    map[string]bool
}

// Resolve assigns slots, hoists shared passes and deduplicates contents.
func Resolve(ctx context.Context, root *annotate.Node) (*model.Plan, error) {
	contents := collectContents(root.Pass)
	r := &resolution{
		logger:       ctxlog.FromContext(ctx),
		contentIndex: make(map[element.ID]int, len(contents)),
		imageSeen:    make(map[string]bool),
	}
	for i, c := range contents {
		r.contentIndex[c.ID] = i
	}

	exec, err := r.resolve(root, model.RootSlot, nil, nil)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Resolved plan.", "contents", len(contents), "preload_images", len(r.images))
	return &model.Plan{Root: exec, Contents: contents, PreloadImages: r.images}, nil
}

// collectContents lists every content use by first-seen identity, pre-order.
func collectContents(root *model.PassNode) []model.ContentUse {
	var out []model.ContentUse
	seen := make(map[element.ID]bool)
	var rec func(n *model.PassNode)
	rec = func(n *model.PassNode) {
		for _, c := range n.Contents {
			if !seen[c.ID] {
				seen[c.ID] = true
				out = append(out, c)
			}
		}
		for _, c := range n.Children {
			rec(c.Node)
		}
	}
	rec(root)
	return out
}

func (r *resolution) resolve(n *annotate.Node, slot int, parentContext []shared, parentSlots []int) (*model.ExecutionNode, error) {
	pass := n.Pass
	if pass.Preload {
		r.collectImages(pass.Uniforms)
	}

	// Slots start at 0 and skip this node's own slot and every slot still
	// live above it.
	next := -1
	gen := func() int {
		next++
		for next == slot || slices.Contains(parentSlots, next) {
			next++
		}
		return next
	}

	exec := &model.ExecutionNode{
		ID:       pass.ID,
		Shader:   pass.Shader,
		Uniforms: make(map[string]model.Value, len(pass.Uniforms)),
		Width:    pass.Width,
		Height:   pass.Height,
		Slot:     slot,
	}
	for name, v := range pass.Uniforms {
		exec.Uniforms[name] = v
	}

	sharedIDs := dependenciesFirst(n, findShared(n, parentContext))
	scope := slices.Clone(parentContext)
	for _, id := range sharedIDs {
		scope = append(scope, shared{id: id, slot: gen()})
	}

	// Shared passes go first so they are resolved, and rendered, in
	// dependency order even when one is also a direct child.
	records := make([]record, 0, len(n.Children)+len(sharedIDs))
	for _, id := range sharedIDs {
		sub, _ := n.Subtree(id)
		records = append(records, record{id: id, node: sub})
	}
	for _, c := range n.Children {
		records = append(records, record{id: c.ID, uniform: c.Uniform, node: c.Node})
	}

	for i := range records {
		rec := &records[i]
		at := slices.IndexFunc(scope, func(s shared) bool { return s.id == rec.id })
		switch {
		case at < 0:
			rec.slot = gen()
			rec.target = &exec.Children
		case at >= len(parentContext):
			rec.slot = scope[at].slot
			rec.target = &exec.ContextChildren
		default:
			// Provided by an ancestor; sample it without resolving again.
			rec.slot = scope[at].slot
		}
		if rec.uniform != "" {
			exec.Uniforms[rec.uniform] = model.Framebuffer{Slot: rec.slot}
		}
	}

	live := slices.Clone(parentSlots)
	for _, s := range scope {
		live = append(live, s.slot)
	}
	for _, rec := range records {
		live = append(live, rec.slot)
	}

	if len(sharedIDs) > 0 {
		r.logger.Debug("Hoisted shared passes.", "pass", pass.ID, "shader", pass.Shader, "shared", sharedIDs)
	}

	recorded := make(map[int]bool, len(records))
	for _, rec := range records {
		if recorded[rec.slot] {
			continue
		}
		recorded[rec.slot] = true
		if rec.target == nil {
			continue
		}
		child, err := r.resolve(rec.node, rec.slot, scope, live)
		if err != nil {
			return nil, err
		}
		*rec.target = append(*rec.target, child)
	}

	for _, c := range pass.Contents {
		index, ok := r.contentIndex[c.ID]
		if !ok {
			return nil, &model.Error{
				Kind:    model.ErrDanglingContentRef,
				Shader:  pass.Shader,
				Uniform: c.Uniform,
				Detail:  fmt.Sprintf("content %d was not collected", c.ID),
			}
		}
		exec.Uniforms[c.Uniform] = model.Content{Index: index, Opts: c.Opts}
	}

	return exec, nil
}

// findShared returns the identities reachable under more than one direct
// child of n, ignoring those an ancestor already shares. Order is first
// encounter.
func findShared(n *annotate.Node, ignore []shared) []element.ID {
	if len(n.Children) < 2 {
		return nil
	}
	ignored := make(map[element.ID]bool, len(ignore))
	for _, s := range ignore {
		ignored[s.id] = true
	}

	occurrences := make(map[element.ID]int)
	var order []element.ID
	for _, c := range n.Children {
		for _, id := range c.Reachable() {
			if ignored[id] {
				continue
			}
			if occurrences[id] == 0 {
				order = append(order, id)
			}
			occurrences[id]++
		}
	}

	var out []element.ID
	for _, id := range order {
		if occurrences[id] > 1 {
			out = append(out, id)
		}
	}
	return out
}

// dependenciesFirst reorders shared identities so that every pass comes
// after the shared passes its subtree reaches. Context children render in
// this order, so a hoisted pass never samples a slot that is still empty.
// Ties keep first-encounter order.
func dependenciesFirst(n *annotate.Node, ids []element.ID) []element.ID {
	if len(ids) < 2 {
		return ids
	}
	inSet := make(map[element.ID]bool, len(ids))
	for _, id := range ids {
		inSet[id] = true
	}

	out := make([]element.ID, 0, len(ids))
	done := make(map[element.ID]bool, len(ids))
	visiting := make(map[element.ID]bool)
	var visit func(id element.ID)
	visit = func(id element.ID) {
		if done[id] || visiting[id] {
			// Pass trees are acyclic; visiting only guards the recursion.
			return
		}
		visiting[id] = true
		if sub, ok := n.Subtree(id); ok {
			for _, dep := range sub.DescendantIDs {
				if inSet[dep] {
					visit(dep)
				}
			}
		}
		visiting[id] = false
		done[id] = true
		out = append(out, id)
	}
	for _, id := range ids {
		visit(id)
	}
	return out
}

func (r *resolution) collectImages(uniforms map[string]model.Value) {
	names := make([]string, 0, len(uniforms))
	for name := range uniforms {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		img, ok := uniforms[name].(model.Image)
		if !ok || r.imageSeen[img.URI] {
			continue
		}
		r.imageSeen[img.URI] = true
		r.images = append(r.images, img)
	}
}
