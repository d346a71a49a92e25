// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package model

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/leafletmm/internal/ctxlog"
	"github.com/specialistvlad/leafletmm/internal/record"
)

// hclMetaModel represents a single 'metamodel' block for decoding purposes.
type hclMetaModel struct {
	Name       string          `hcl:"name,label"`
	Attributes []*hclAttribute `hcl:"attribute,block"`
	Items      []*hclItem      `hcl:"item,block"`
	DefRange   hcl.Range       `hcl:",def_range"`
}

type hclAttribute struct {
	Name   string `hcl:"name,label"`
	Type   string `hcl:"type"`
	Column string `hcl:"column,optional"`
}

// hclItem keeps the item body raw; its attributes are the item's columns.
type hclItem struct {
	ID       string    `hcl:"id,label"`
	Body     hcl.Body  `hcl:",remain"`
	DefRange hcl.Range `hcl:",def_range"`
}

func newMetaModelFromHCL(ctx context.Context, mm *hclMetaModel) (*record.MetaModel, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx)
	var diags hcl.Diagnostics

	attrs := make([]record.Attribute, 0, len(mm.Attributes))
	for _, a := range mm.Attributes {
		attrs = append(attrs, record.Attribute{Name: a.Name, Type: a.Type, ColumnName: a.Column})
	}

	model, err := record.NewMetaModel(mm.Name, attrs...)
	if err != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid metamodel",
			Detail:   err.Error(),
			Subject:  mm.DefRange.Ptr(),
		})
		return nil, diags
	}

	evalCtx := EvalContext()
	for _, it := range mm.Items {
		hclAttrs, attrDiags := it.Body.JustAttributes()
		diags = append(diags, attrDiags...)
		if attrDiags.HasErrors() {
			continue
		}

		values := make(map[string]cty.Value, len(hclAttrs))
		for name, attr := range hclAttrs {
			v, valDiags := attr.Expr.Value(evalCtx)
			diags = append(diags, valDiags...)
			if valDiags.HasErrors() {
				continue
			}
			values[name] = v
		}

		if _, err := model.AddItem(it.ID, values); err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid item",
				Detail:   err.Error(),
				Subject:  it.DefRange.Ptr(),
			})
		}
	}

	if diags.HasErrors() {
		return nil, diags
	}

	logger.Debug("Parsed metamodel", "metamodel", mm.Name, "attributes", len(attrs), "items", len(mm.Items))
	return model, diags
}
