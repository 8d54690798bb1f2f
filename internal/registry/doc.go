// Package registry holds the shader registry shared by every compilation.
//
// The Registry maps opaque ShaderIDs to shader definitions. The host owns a
// single Registry for the lifetime of the process and hands it to the
// builder; there is no package-level registry. Ids start at 1, increase
// monotonically and are never reused, so an id observed once stays valid.
package registry
