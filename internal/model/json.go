// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the JSON wire shape of a plan, consumed by out-of-process
// rendering backends. Texture values are tagged objects ({"type": "uri"},
// {"type": "ndarray"}, {"type": "content"}, {"type": "fbo"}); scalars are
// emitted unchanged and blank textures as null.
package model

import (
	"encoding/json"

	"github.com/vk/shaderplan/internal/element"
)

// MarshalJSON emits the scalar value unchanged.
func (s Scalar) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Value)
}

// MarshalJSON emits null, which backends read as an empty texture.
func (Blank) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// MarshalJSON emits the source descriptor tagged as a uri texture.
func (i Image) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(i.Source)+3)
	for k, v := range i.Source {
		out[k] = v
	}
	out["type"] = "uri"
	out["uri"] = i.URI
	if i.Opts != nil {
		out["opts"] = i.Opts
	}
	return json.Marshal(out)
}

// MarshalJSON emits the pixel buffer together with its layout.
func (a NDArray) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    string `json:"type"`
		NDArray any    `json:"ndarray"`
		Opts    Opts   `json:"opts,omitempty"`
	}{
		Type: "ndarray",
		NDArray: map[string]any{
			"data":   a.Data,
			"shape":  a.Shape,
			"stride": a.Stride,
			"offset": a.Offset,
		},
		Opts: a.Opts,
	})
}

// MarshalJSON emits the index into Plan.Contents.
func (c Content) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		ID   int    `json:"id"`
		Opts Opts   `json:"opts,omitempty"`
	}{Type: "content", ID: c.Index, Opts: c.Opts})
}

// MarshalJSON emits the slot to sample.
func (f Framebuffer) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		ID   int    `json:"id"`
	}{Type: "fbo", ID: f.Slot})
}

// MarshalJSON emits the element identity. Resolved plans never contain it.
func (c ContentRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    string     `json:"type"`
		Element element.ID `json:"element"`
		Opts    Opts       `json:"opts,omitempty"`
	}{Type: "content_ref", Element: c.ID, Opts: c.Opts})
}

// MarshalJSON emits the pass identity. Resolved plans never contain it.
func (f FramebufferRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    string     `json:"type"`
		Element element.ID `json:"element"`
	}{Type: "fbo_ref", Element: f.ID})
}

// MarshalJSON describes the captured element so that a remote host can
// render it.
func (c ContentUse) MarshalJSON() ([]byte, error) {
	out := struct {
		ID      element.ID     `json:"id"`
		Uniform string         `json:"uniform"`
		Label   string         `json:"label,omitempty"`
		Type    string         `json:"type,omitempty"`
		Props   map[string]any `json:"props,omitempty"`
		Opts    Opts           `json:"opts,omitempty"`
	}{ID: c.ID, Uniform: c.Uniform, Opts: c.Opts}

	if c.Element != nil {
		out.Label = c.Element.String()
		out.Type = c.Element.Kind().String()
		if content, ok := c.Element.(*element.Content); ok {
			out.Type = content.Type
			out.Props = content.Props
		}
	}
	return json.Marshal(out)
}
