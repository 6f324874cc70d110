package registry

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

func decodeYAML(data []byte) (*Document, error) {
	doc := emptyDocument()
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, err
	}
	if doc.TaskDefinitions == nil {
		doc.TaskDefinitions = map[string]TaskDefinition{}
	}
	if doc.ColorSchemes == nil {
		doc.ColorSchemes = map[string]map[string]string{}
	}
	return doc, nil
}

// hclDocument is the HCL form of a Document:
//
//	task "ReadExcel" {
//	  category = "input"
//	  color    = "#E3F2FD"
//	}
//
//	color_scheme "default" {
//	  input = "#E3F2FD"
//	}
//
//	default_styling {
//	  diagram_direction = "LR"
//	}
type hclDocument struct {
	Tasks   []*hclTask   `hcl:"task,block"`
	Schemes []*hclScheme `hcl:"color_scheme,block"`
	Styling *hclStyling  `hcl:"default_styling,block"`
	Remain  hcl.Body     `hcl:",remain"`
}

type hclTask struct {
	Type        string `hcl:"type,label"`
	Category    string `hcl:"category,optional"`
	Color       string `hcl:"color,optional"`
	Shape       string `hcl:"shape,optional"`
	Icon        string `hcl:"icon,optional"`
	DisplayName string `hcl:"display_name,optional"`
	Description string `hcl:"description,optional"`
}

type hclScheme struct {
	Name   string   `hcl:"name,label"`
	Colors hcl.Body `hcl:",remain"`
}

type hclStyling struct {
	DiagramDirection string   `hcl:"diagram_direction,optional"`
	Remain           hcl.Body `hcl:",remain"`
}

func decodeHCL(filename string, data []byte) (*Document, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, diags
	}

	var root hclDocument
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, diags
	}

	doc := emptyDocument()
	for _, t := range root.Tasks {
		if _, dup := doc.TaskDefinitions[t.Type]; dup {
			return nil, fmt.Errorf("task %q is defined more than once", t.Type)
		}
		doc.TaskDefinitions[t.Type] = TaskDefinition{
			Category:    t.Category,
			Color:       t.Color,
			Shape:       t.Shape,
			Icon:        t.Icon,
			DisplayName: t.DisplayName,
			Description: t.Description,
		}
	}

	for _, s := range root.Schemes {
		attrs, diags := s.Colors.JustAttributes()
		if diags.HasErrors() {
			return nil, diags
		}
		colors := make(map[string]string, len(attrs))
		for name, attr := range attrs {
			val, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, diags
			}
			if val.IsNull() || !val.Type().Equals(cty.String) {
				return nil, fmt.Errorf("color_scheme %q: %s must be a string", s.Name, name)
			}
			colors[name] = val.AsString()
		}
		doc.ColorSchemes[s.Name] = colors
	}

	if root.Styling != nil {
		doc.DefaultStyling.DiagramDirection = root.Styling.DiagramDirection
		if root.Styling.Remain != nil {
			attrs, diags := root.Styling.Remain.JustAttributes()
			if diags.HasErrors() {
				return nil, diags
			}
			if len(attrs) > 0 {
				doc.DefaultStyling.Extra = make(map[string]any, len(attrs))
			}
			for name, attr := range attrs {
				val, diags := attr.Expr.Value(nil)
				if diags.HasErrors() {
					return nil, diags
				}
				doc.DefaultStyling.Extra[name] = ctyToGo(val)
			}
		}
	}
	return doc, nil
}

// ctyToGo converts a known cty value into plain Go values.
func ctyToGo(val cty.Value) any {
	if val.IsNull() || !val.IsKnown() {
		return nil
	}
	ty := val.Type()
	switch {
	case ty.Equals(cty.String):
		return val.AsString()
	case ty.Equals(cty.Bool):
		return val.True()
	case ty.Equals(cty.Number):
		bf := val.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == 0 {
				return i
			}
		}
		f, _ := bf.Float64()
		return f
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			out = append(out, ctyToGo(v))
		}
		return out
	case ty.IsMapType() || ty.IsObjectType():
		out := make(map[string]any, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			out[k.AsString()] = ctyToGo(v)
		}
		return out
	}
	return val.GoString()
}
