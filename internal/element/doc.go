/*
Package element defines the declarative scene tree that the compiler consumes.

Every node carries an identity token (ID) assigned once, when the node is
created through a Factory. Identity is the sole basis for sharing: two
uniforms that point at the same *Pass share one render pass, while two
value-equal passes created separately stay independent.

Node kinds:

  - Pass: a shader pass; its Children are Uniform declarations.
  - Uniform: a named uniform declaration attached to a Pass.
  - Component: a delegate that renders child nodes from its Props.
  - Content: opaque external content (a view, canvas or video) that the
    host captures into a texture.
  - Fragment: an ordered list of nodes with its own identity.

Component and Fragment implement Delegate; the builder expands delegates
while looking for a Pass behind a uniform value.
*/
package element
