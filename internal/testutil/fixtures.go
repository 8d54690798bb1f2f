package testutil

// Shaders declares the shaders used by the fixtures.
const Shaders = `
shader "copy" { frag = "void main() { gl_FragColor = texture2D(t, uv); }" }
shader "blur" { frag = "void main() { gl_FragColor = vec4(0.5); }" }
shader "mix"  { frag = "void main() { gl_FragColor = vec4(1.0); }" }
`

// SharedBlurScene samples one blur pass from two branches, so the blur is
// hoisted into the root's shared passes.
const SharedBlurScene = `
content "video" {
  type  = "video"
  props = { src = "clip.mp4" }
}

pass "blur" {
  shader   = shader.blur
  uniforms = { t = content.video }
}

pass "left" {
  shader   = shader.copy
  uniforms = { t = pass.blur }
}

pass "right" {
  shader   = shader.copy
  uniforms = { t = pass.blur }
}

pass "main" {
  shader   = shader.mix
  uniforms = { a = pass.left, b = pass.right, photo = "photo.jpg" }
  preload  = true
}

scene {
  root   = pass.main
  width  = 320
  height = 240
}
`
