// Package inventory queries the deployment engine for all deployments and
// filters them down to the ones this controller owns, enforcing tag
// isolation in one place.
package inventory

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/openshift/hydra-provisioner/internal/nixops"
)

// ArgTag and ArgType are the well-known keys the controller reads on
// deployment args.
const (
	ArgTag  = "tag"
	ArgType = "type"
)

// Inventory is the working set of deployments tagged for this controller,
// kept in sync as the reconciler creates new ones within a run.
type Inventory struct {
	Tag   string
	items []nixops.Deployment
}

// Load lists every deployment the engine knows about and filters it down
// to those whose "tag" arg matches tag. Deployments belonging to another
// controller (or untagged) are never read further, modified, or destroyed.
func Load(ctx context.Context, eng nixops.Engine, tag string) (*Inventory, error) {
	all, err := eng.ListDeployments(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing deployments")
	}

	inv := &Inventory{Tag: tag}
	for _, d := range all {
		if d.Args[ArgTag] == tag {
			inv.items = append(inv.items, d)
		}
	}
	return inv, nil
}

// All returns every deployment currently tracked by this inventory.
func (inv *Inventory) All() []nixops.Deployment {
	return inv.items
}

// OfType returns the deployments whose "type" arg equals typeName.
func (inv *Inventory) OfType(typeName string) []nixops.Deployment {
	var out []nixops.Deployment
	for _, d := range inv.items {
		if d.Args[ArgType] == typeName {
			out = append(out, d)
		}
	}
	return out
}

// ValidateArg rejects values containing a double quote rather than
// silently stripping them, per the stricter interpretation chosen over the
// source's `.replace('"', '')` (source comment: "FIXME: escaping").
func ValidateArg(value string) error {
	if strings.Contains(value, `"`) {
		return errors.Errorf("deployment arg value %q contains a double quote, which is not allowed", value)
	}
	return nil
}

// Create allocates a new deployment named "<tag>-<n>", for the smallest
// non-negative n not already taken among the deployments in this
// inventory, and registers it with args {tag, type}. Names held by
// deployments outside this inventory (other tags, or untagged) are not
// considered. The new deployment is appended to this inventory so
// subsequent allocations within the same run see it.
func (inv *Inventory) Create(ctx context.Context, eng nixops.Engine, typeName string) (nixops.Deployment, error) {
	for _, v := range []string{inv.Tag, typeName} {
		if err := ValidateArg(v); err != nil {
			return nixops.Deployment{}, err
		}
	}

	name := inv.nextName()
	args := map[string]string{ArgTag: inv.Tag, ArgType: typeName}
	d, err := eng.CreateDeployment(ctx, name, args)
	if err != nil {
		return nixops.Deployment{}, errors.Wrapf(err, "creating deployment %q", name)
	}
	d.Args = args
	inv.items = append(inv.items, d)
	return d, nil
}

func (inv *Inventory) nextName() string {
	taken := map[string]struct{}{}
	for _, d := range inv.items {
		taken[d.Name] = struct{}{}
	}
	for n := 0; ; n++ {
		name := inv.Tag + "-" + strconv.Itoa(n)
		if _, ok := taken[name]; !ok {
			return name
		}
	}
}
