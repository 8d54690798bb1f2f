// Package config defines the format-agnostic scene model and the Loader
// interface that produces it.
//
// A Scene is what the compiler consumes: the shaders to register and the
// declarative element tree rooted at one pass. Concrete loaders, such as the
// HCL one, live in separate packages.
package config
