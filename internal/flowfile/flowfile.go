// Package flowfile loads workflow definitions from HCL files. A flow file
// declares nodes and the edges wiring their ports:
//
//	workflow = "price-alert"
//
//	node "constant" "n1" {
//	  config {
//	    value = "42"
//	  }
//	}
//
//	node "arith" "n2" {}
//
//	edge {
//	  source = "n1.out"
//	  target = "n2.in"
//	}
//
// The loader only produces a structural *model.Workflow; type checking and
// cycle detection happen later in the builder.
package flowfile

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgrid/internal/model"
)

// fileRoot decodes the top-level blocks of a flow file.
type fileRoot struct {
	Name  *string    `hcl:"workflow,optional"`
	Nodes []*hclNode `hcl:"node,block"`
	Edges []*hclEdge `hcl:"edge,block"`
}

type hclNode struct {
	Type string   `hcl:"type,label"`
	ID   string   `hcl:"id,label"`
	Body hcl.Body `hcl:",remain"`
}

type hclEdge struct {
	Source string `hcl:"source"`
	Target string `hcl:"target"`
}

// nodeBodySchema admits a single optional 'config' block inside a node.
var nodeBodySchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "config"},
	},
}

// Load parses the flow file at path into a workflow definition.
func Load(path string) (*model.Workflow, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse flow file %s: %w", path, diags)
	}
	return decode(hclFile, defaultName(path))
}

// Parse decodes an in-memory flow file. The filename is used for diagnostic
// positions and as the fallback workflow name.
func Parse(src []byte, filename string) (*model.Workflow, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse flow file %s: %w", filename, diags)
	}
	return decode(hclFile, defaultName(filename))
}

func defaultName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func decode(hclFile *hcl.File, fallbackName string) (*model.Workflow, error) {
	var root fileRoot
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode flow file: %w", diags)
	}

	wf := &model.Workflow{ID: fallbackName}
	if root.Name != nil {
		wf.ID = *root.Name
	}

	for _, n := range root.Nodes {
		cfg, err := decodeConfig(n)
		if err != nil {
			return nil, err
		}
		wf.Nodes = append(wf.Nodes, model.NodeSpec{ID: n.ID, Type: n.Type, Config: cfg})
	}

	for _, e := range root.Edges {
		src, err := model.ParsePortRef(e.Source)
		if err != nil {
			return nil, fmt.Errorf("edge source %q: %w", e.Source, err)
		}
		dst, err := model.ParsePortRef(e.Target)
		if err != nil {
			return nil, fmt.Errorf("edge target %q: %w", e.Target, err)
		}
		wf.Edges = append(wf.Edges, model.EdgeSpec{
			SourceNode: src.Node,
			SourcePort: src.Port,
			TargetNode: dst.Node,
			TargetPort: dst.Port,
		})
	}

	return wf, nil
}

// decodeConfig evaluates the attributes of a node's 'config' block into an
// object value. Expressions are evaluated without an eval context, so only
// literals and constant expressions are allowed.
func decodeConfig(n *hclNode) (cty.Value, error) {
	content, diags := n.Body.Content(nodeBodySchema)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("node %q: %w", n.ID, diags)
	}

	var configBlock *hcl.Block
	for _, b := range content.Blocks {
		if configBlock != nil {
			return cty.NilVal, fmt.Errorf("node %q: duplicate config block", n.ID)
		}
		configBlock = b
	}
	if configBlock == nil {
		return cty.NilVal, nil
	}

	attrs, diags := configBlock.Body.JustAttributes()
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("node %q: %w", n.ID, diags)
	}

	values := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		v, valDiags := attr.Expr.Value(nil)
		if valDiags.HasErrors() {
			return cty.NilVal, fmt.Errorf("node %q, config attribute %q: %w", n.ID, name, valDiags)
		}
		values[name] = v
	}
	if len(values) == 0 {
		return cty.EmptyObjectVal, nil
	}
	return cty.ObjectVal(values), nil
}
