// Package reconcile implements the reconciliation controller's selection
// and retention logic: for each machine type it decides which existing
// deployments satisfy current demand, creates new ones when the pool is
// short, and classifies everything else as retained, unusable, or expired.
package reconcile

import (
	"context"
	"sort"
	"time"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/openshift/hydra-provisioner/internal/inventory"
	"github.com/openshift/hydra-provisioner/internal/metrics"
	"github.com/openshift/hydra-provisioner/internal/nixops"
	"github.com/openshift/hydra-provisioner/internal/policy"
	"github.com/openshift/hydra-provisioner/internal/sizer"
	"github.com/openshift/hydra-provisioner/internal/status"
)

// maxCreatedPerType bounds the blast radius of a misconfigured creation:
// at most one new deployment per machine type per run.
const maxCreatedPerType = 1

// Result is the classification produced by one reconciliation pass.
type Result struct {
	// InUse holds every deployment retained to serve current demand, or
	// to protect paid time, active jobs, or the grace period. Keyed by
	// deployment name.
	InUse map[string]nixops.Deployment
	// Unusable is the subset of InUse withheld from the emitted roster:
	// active deployments whose type has a zero grace period, so current
	// jobs finish but no new ones are admitted.
	Unusable map[string]bool
	// Expired holds deployments targeted for retirement. Expired and
	// InUse are disjoint.
	Expired map[string]nixops.Deployment
}

// Run performs one full reconciliation pass: selection against demand,
// followed by retention of everything not selected.
func Run(ctx context.Context, log logr.Logger, rec *metrics.Recorder, eng nixops.Engine, inv *inventory.Inventory, pol policy.Policy, st status.Status, demand map[string]sizer.Demand, now time.Time) (*Result, error) {
	res := &Result{
		InUse:    map[string]nixops.Deployment{},
		Unusable: map[string]bool{},
		Expired:  map[string]nixops.Deployment{},
	}

	for typeName, d := range demand {
		typePolicy, ok := pol.SystemTypes[typeName]
		if !ok {
			continue
		}
		if err := selectForType(ctx, log, rec, eng, inv, typeName, typePolicy, d.Allowed, res.InUse); err != nil {
			return nil, errors.Wrapf(err, "selecting deployments for type %q", typeName)
		}
	}

	for _, d := range inv.All() {
		if _, selected := res.InUse[d.Name]; selected {
			continue
		}
		retain(log, pol, st, now, d, res)
	}

	return res, nil
}

// pool is the existing-deployment queue for one machine type, ordered so
// that "up" deployments are tried first. Re-sorting after a failed
// liveness check keeps the invariant without a full priority-queue
// structure; pool sizes are expected to stay in the single digits, so the
// O(n log n) re-sort per demotion is not a concern in practice.
type pool struct {
	items []nixops.Deployment
}

func newPool(items []nixops.Deployment) *pool {
	p := &pool{items: append([]nixops.Deployment{}, items...)}
	p.resort()
	return p
}

func (p *pool) resort() {
	sort.SliceStable(p.items, func(i, j int) bool {
		return p.items[i].State == nixops.StateUp && p.items[j].State != nixops.StateUp
	})
}

func (p *pool) empty() bool { return len(p.items) == 0 }

func (p *pool) pop() nixops.Deployment {
	d := p.items[0]
	p.items = p.items[1:]
	return d
}

func selectForType(ctx context.Context, log logr.Logger, rec *metrics.Recorder, eng nixops.Engine, inv *inventory.Inventory, typeName string, tp policy.TypePolicy, allowed int, inUse map[string]nixops.Deployment) error {
	existing := newPool(inv.OfType(typeName))

	have := 0
	created := 0

	for have < allowed {
		var candidate nixops.Deployment
		var accepted bool

		if existing.empty() {
			d, err := inv.Create(ctx, eng, typeName)
			if err != nil {
				return err
			}
			log.Info("created deployment", "name", d.Name, "type", typeName)
			rec.IncDeploymentsCreated()
			created++
			candidate, accepted = d, true
		} else {
			d := existing.pop()
			switch d.State {
			case nixops.StateUp:
				fresh, err := eng.Check(ctx, d)
				if err != nil {
					log.Error(err, "liveness check failed, demoting candidate", "name", d.Name)
					fresh = nixops.StateMissing
				}
				if fresh != nixops.StateUp {
					d.State = fresh
					existing.items = append(existing.items, d)
					existing.resort()
					continue
				}
				candidate, accepted = d, true
			case nixops.StateMissing:
				continue
			default:
				candidate, accepted = d, true
			}
		}

		if !accepted {
			continue
		}

		if err := eng.SetRecipe(ctx, candidate, tp.NixopsExpr, tp.NixPath); err != nil {
			return errors.Wrapf(err, "setting recipe for %q", candidate.Name)
		}
		inUse[candidate.Name] = candidate
		have++

		if created >= maxCreatedPerType {
			break
		}
	}

	return nil
}

// retain applies the retention rules, in order, to a single not-selected
// deployment; the first matching rule fixes the outcome.
func retain(log logr.Logger, pol policy.Policy, st status.Status, now time.Time, d nixops.Deployment, res *Result) {
	if !d.State.Active() {
		res.Expired[d.Name] = d
		return
	}

	typeName := d.Args[inventory.ArgType]
	typePolicy, hasPolicy := pol.SystemTypes[typeName]
	gracePeriod := time.Duration(0)
	if hasPolicy {
		gracePeriod = typePolicy.GracePeriod
	}

	if timeLeft := d.TimeLeft(now); timeLeft >= 30*time.Minute {
		log.Info("keeping deployment, paid time remaining", "name", d.Name, "timeLeft", timeLeft)
		res.InUse[d.Name] = d
		return
	}

	machineStatus, hasMachine := st.Machines["root@"+d.SSHName]
	if hasMachine && machineStatus.CurrentJobs != 0 {
		log.Info("keeping active deployment", "name", d.Name, "currentJobs", machineStatus.CurrentJobs)
		res.InUse[d.Name] = d
		if gracePeriod == 0 {
			res.Unusable[d.Name] = true
		}
		return
	}

	lastActive := int64(0)
	if ts, ok := st.MachineTypes[typeName]; ok {
		lastActive = ts.LastActive
	}
	if lastActive == 0 {
		lastActive = now.Unix() - st.UptimeSec + 1800
	}

	if now.Unix()-lastActive < int64(gracePeriod/time.Second) {
		log.Info("keeping recently used deployment", "name", d.Name)
		res.InUse[d.Name] = d
		return
	}

	res.Expired[d.Name] = d
}
