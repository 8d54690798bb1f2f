/*
Package resolver turns an annotated pass tree into an execution plan.

Every nested pass gets a slot, the framebuffer it renders into. A pass's
slot differs from its parent's and from every slot still live at that point
of the walk: the slots of its ancestors and of the passes those ancestors
render before themselves. Slots are scoped, so unrelated branches reuse the
same small numbers.

A nested pass reachable under more than one direct child of a node is
shared. It is resolved once into that node's ContextChildren, the lowest
common ancestor of its users, and every occurrence below samples it by slot.
A child already provided by an ancestor's context is not resolved again.

External contents are deduplicated for the whole tree by identity, in
pre-order of first use. Preload images are collected in the same order and
deduplicated by URI.
*/
package resolver
