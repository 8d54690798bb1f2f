// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the compile lifecycle: load a scene,
// compile it into a plan, verify, print and publish it. It is decoupled
// from any specific entrypoint like a CLI or server.
package app
