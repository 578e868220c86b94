package layout

import (
	"go.uber.org/multierr"

	"github.com/kryonlabs/kryon-runtime/krb"
	"github.com/kryonlabs/kryon-runtime/registry"
	"github.com/kryonlabs/kryon-runtime/resolve"
)

// applyCustomComponentAdjustments is layout's only extensibility point:
// after the whole tree is placed, every element whose resolved
// ComponentName matches a registered adjuster gets one more chance to
// mutate its own (and its children's) geometry and visibility — a tab bar
// pinning itself to an edge and shrinking its sibling content area, for
// example. Traversal order is parent-before-children, so an outer
// component's adjustment is visible to a nested one. Individual adjuster
// failures are collected rather than aborting the rest of the tree.
func applyCustomComponentAdjustments(el *resolve.RenderElement, reg *registry.Registry, doc *krb.Document) error {
	var errs error
	if reg != nil && el.ComponentName != "" {
		if adj, ok := reg.LookupCustomComponent(el.ComponentName); ok {
			if err := adj.HandleLayoutAdjustment(el, doc); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
	}
	for _, c := range el.Children {
		errs = multierr.Append(errs, applyCustomComponentAdjustments(c, reg, doc))
	}
	return errs
}
