// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package record

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// FileValue is the parsed form of a file attribute.
type FileValue struct {
	Raw FileRaw
}

// FileRaw holds the referenced paths, relative to the root directory.
type FileRaw struct {
	Path []string
}

// Paths returns the referenced paths in order.
func (v FileValue) Paths() []string {
	return v.Raw.Path
}

var pathListType = cty.List(cty.String)

// ParseFileValue interprets v as a file reference. Accepted shapes are a
// single path string, a list or tuple of path strings, or an object with a
// "path" member holding either of those. Anything else parses to an empty
// FileValue, which means there is nothing to load.
func ParseFileValue(v cty.Value) FileValue {
	if v.IsNull() || !v.IsWhollyKnown() {
		return FileValue{}
	}

	ty := v.Type()
	if (ty.IsObjectType() && ty.HasAttribute("path")) || ty.IsMapType() {
		if ty.IsMapType() && !v.HasIndex(cty.StringVal("path")).True() {
			return FileValue{}
		}
		var inner cty.Value
		if ty.IsObjectType() {
			inner = v.GetAttr("path")
		} else {
			inner = v.Index(cty.StringVal("path"))
		}
		return ParseFileValue(inner)
	}

	if ty.Equals(cty.String) {
		if v.AsString() == "" {
			return FileValue{}
		}
		return FileValue{Raw: FileRaw{Path: []string{v.AsString()}}}
	}

	list, err := convert.Convert(v, pathListType)
	if err != nil || list.IsNull() {
		return FileValue{}
	}

	var paths []string
	for it := list.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		if elem.IsNull() || elem.AsString() == "" {
			continue
		}
		paths = append(paths, elem.AsString())
	}
	return FileValue{Raw: FileRaw{Path: paths}}
}

// AsString renders a column value as the text a renderer hands to a
// feature. Strings are returned unchanged, nulls as the empty string,
// primitives through cty conversion and collections as JSON.
func AsString(v cty.Value) (string, error) {
	if v.IsNull() {
		return "", nil
	}
	if !v.IsWhollyKnown() {
		return "", fmt.Errorf("value is not known")
	}

	ty := v.Type()
	if ty.IsPrimitiveType() {
		s, err := convert.Convert(v, cty.String)
		if err != nil {
			return "", err
		}
		return s.AsString(), nil
	}

	b, err := ctyjson.SimpleJSONValue{Value: v}.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("failed to encode value as JSON: %w", err)
	}
	return string(b), nil
}
