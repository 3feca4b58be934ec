package engine

import (
	"context"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgrid/internal/ctxlog"
	"github.com/vk/flowgrid/internal/model"
)

// resolveInputs gathers a node's inbound values: top-level inputs first,
// then every inbound edge resolved through the connection validator with
// its converter applied.
//
// A skipErr means the node must be marked skipped (an inbound connection
// cannot be resolved); a failErr means the node must be marked failed (its
// data was invalid at runtime). Exactly one of the three results is set.
func (r *run) resolveInputs(ctx context.Context, n *execNode) (inputs map[string]cty.Value, skipErr, failErr error) {
	logger := ctxlog.FromContext(ctx).With("node", n.id)

	inputs = make(map[string]cty.Value)
	for port, v := range r.opts.Inputs[n.id] {
		inputs[port] = v
	}

	for _, e := range r.plan.Inbound[n.id] {
		upstream := r.nodes[e.SourceNode]
		if upstream.record.Status != model.StatusSucceeded {
			// Normally unreachable: dependents of a failed node are skipped
			// before they are scheduled.
			return nil, model.NewError(model.CodeSkipped, n.id,
				"upstream node %q did not succeed", e.SourceNode), nil
		}

		srcPort, _ := upstream.comp.OutputPort(e.SourcePort)
		dstPort, _ := n.comp.InputPort(e.TargetPort)

		res := r.engine.validator.Validate(srcPort.Type, dstPort.Type)
		if !res.CanConnect {
			cause := error(nil)
			if len(res.Errors) > 0 {
				cause = res.Errors[0]
			}
			return nil, model.WrapError(model.CodeNoPath, n.id, cause,
				"cannot connect %s.%s (%s) to %s.%s (%s)",
				e.SourceNode, e.SourcePort, srcPort.Type, n.id, e.TargetPort, dstPort.Type), nil
		}
		for _, w := range res.Warnings {
			r.addWarning("edge %s.%s -> %s.%s: %s", e.SourceNode, e.SourcePort, n.id, e.TargetPort, w)
		}

		val, ok := upstream.record.Outputs[e.SourcePort]
		if !ok {
			return nil, nil, model.NewError(model.CodeBadOutput, n.id,
				"upstream node %q produced no value on port %q", e.SourceNode, e.SourcePort)
		}

		if res.Chain != nil {
			logger.Debug("Applying conversion chain.", "hops", res.Hops(), "cost", res.TotalCost)
			converted, err := res.Chain.Apply(val)
			if err != nil {
				return nil, nil, model.WrapError(model.CodeRuntime, n.id, err,
					"conversion failed for edge %s.%s -> %s.%s", e.SourceNode, e.SourcePort, n.id, e.TargetPort)
			}
			val = converted
		}
		inputs[e.TargetPort] = val
	}

	for _, p := range n.comp.Inputs {
		if !p.Required {
			continue
		}
		if _, ok := inputs[p.ID]; !ok {
			return nil, nil, model.NewError(model.CodeRuntime, n.id,
				"required input port %q received no value", p.ID)
		}
	}

	return inputs, nil, nil
}
