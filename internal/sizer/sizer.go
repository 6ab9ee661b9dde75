// Package sizer computes the desired per-machine-type worker count from
// backlog telemetry and policy.
package sizer

import (
	"math"

	"github.com/go-logr/logr"

	"github.com/openshift/hydra-provisioner/internal/metrics"
	"github.com/openshift/hydra-provisioner/internal/policy"
	"github.com/openshift/hydra-provisioner/internal/status"
)

// Demand is the computed sizing result for one machine type.
type Demand struct {
	Runnable int
	Wanted   int
	Allowed  int
}

// Size computes Demand for every machine type named by either the policy
// or the status document. Types present only in status (no matching
// policy) are logged as undeployable and contribute zero demand; types
// present only in policy contribute demand via MinMachines.
func Size(log logr.Logger, rec *metrics.Recorder, pol policy.Policy, st status.Status) map[string]Demand {
	out := map[string]Demand{}

	names := map[string]struct{}{}
	for name := range pol.SystemTypes {
		names[name] = struct{}{}
	}
	for name := range st.MachineTypes {
		names[name] = struct{}{}
	}

	for name := range names {
		typePolicy, hasPolicy := pol.SystemTypes[name]
		if !hasPolicy {
			log.Info("cannot provision machines of type, no policy defined", "type", name)
			continue
		}

		runnable := st.MachineTypes[name].Runnable
		demand := demandFor(runnable, typePolicy)
		log.Info("sized machine type",
			"type", name, "runnable", demand.Runnable, "wanted", demand.Wanted, "allowed", demand.Allowed)
		rec.ObserveDemand(name, demand.Wanted, demand.Allowed)
		out[name] = demand
	}

	return out
}

func demandFor(runnable int, t policy.TypePolicy) Demand {
	usable := runnable - t.IgnoredRunnables
	if usable < 0 {
		usable = 0
	}

	perMachine := t.RunnablesPerMachine
	if perMachine <= 0 {
		perMachine = 10
	}
	wanted := int(math.Ceil(float64(usable) / float64(perMachine)))

	allowed := clamp(wanted, t.MinMachines, t.MaxMachines)
	return Demand{Runnable: runnable, Wanted: wanted, Allowed: allowed}
}

func clamp(v, min, max int) int {
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return v
}
