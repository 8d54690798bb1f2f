package app

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/vk/shaderplan/internal/model"
	"github.com/vk/shaderplan/internal/registry"
)

// writeText prints the plan as an indented tree, one pass per line:
//
//	[-1] mix 640x480 a=fbo(0) b=content(0)
//	  shared:
//	    [0] blur 640x480 tex=content(0)
func writeText(w io.Writer, plan *model.Plan, name func(registry.ShaderID) string) error {
	var b strings.Builder
	var rec func(n *model.ExecutionNode, depth int)
	rec = func(n *model.ExecutionNode, depth int) {
		indent := strings.Repeat("  ", depth)
		fmt.Fprintf(&b, "%s[%d] %s %dx%d", indent, n.Slot, name(n.Shader), n.Width, n.Height)
		for _, u := range sortedUniforms(n.Uniforms) {
			fmt.Fprintf(&b, " %s=%s", u, formatValue(n.Uniforms[u]))
		}
		b.WriteString("\n")
		if len(n.ContextChildren) > 0 {
			fmt.Fprintf(&b, "%s  shared:\n", indent)
			for _, c := range n.ContextChildren {
				rec(c, depth+2)
			}
		}
		for _, c := range n.Children {
			rec(c, depth+1)
		}
	}
	if plan.Root != nil {
		rec(plan.Root, 0)
	}

	if len(plan.Contents) > 0 {
		b.WriteString("contents:\n")
		for i, c := range plan.Contents {
			fmt.Fprintf(&b, "  %d %s\n", i, c.Element)
		}
	}
	if len(plan.PreloadImages) > 0 {
		b.WriteString("preload:\n")
		for _, img := range plan.PreloadImages {
			fmt.Fprintf(&b, "  %s\n", img.URI)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func sortedUniforms(uniforms map[string]model.Value) []string {
	names := make([]string, 0, len(uniforms))
	for k := range uniforms {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func formatValue(v model.Value) string {
	switch v := v.(type) {
	case model.Scalar:
		return fmt.Sprint(v.Value)
	case model.Blank:
		return "blank"
	case model.Image:
		return fmt.Sprintf("image(%s)", v.URI)
	case model.NDArray:
		return fmt.Sprintf("ndarray%v", v.Shape)
	case model.Content:
		return fmt.Sprintf("content(%d)", v.Index)
	case model.Framebuffer:
		return fmt.Sprintf("fbo(%d)", v.Slot)
	case model.ContentRef:
		return fmt.Sprintf("contentref(%d)", v.ID)
	case model.FramebufferRef:
		return fmt.Sprintf("fboref(%d)", v.ID)
	default:
		return fmt.Sprintf("%v", v)
	}
}
