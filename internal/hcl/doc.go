// Package hcl provides the concrete HCL implementation of config.Loader.
// It parses scene files, registers their shaders and turns every block into
// exactly one declarative element, so that referencing the same block twice
// shares its identity.
//
// A scene is described by these top-level blocks:
//
//	shader "blur" { frag = file("blur.frag") }
//	pass "blur" {
//	  shader   = shader.blur
//	  uniforms = { img = "photo.jpg", radius = 4 }
//	}
//	pass "main" {
//	  shader = shader.mix
//	  uniform "a" { value = pass.blur }
//	  uniform "b" {
//	    value = content.video
//	    opts  = { interpolation = "nearest" }
//	  }
//	}
//	content "video" { type = "video", props = { src = "clip.mp4" } }
//	component "wrap" { renders = pass.blur }
//	fragment "group" { children = [content.video] }
//	scene { root = pass.main, width = 640, height = 480 }
//
// Blocks may be split across any number of files.
package hcl
