// Package retire stops or destroys expired deployments, respecting paid
// time and per-type stop-on-idle policy.
package retire

import (
	"context"
	"time"

	"github.com/go-logr/logr"

	"github.com/openshift/hydra-provisioner/internal/inventory"
	"github.com/openshift/hydra-provisioner/internal/metrics"
	"github.com/openshift/hydra-provisioner/internal/nixops"
	"github.com/openshift/hydra-provisioner/internal/policy"
)

// minPaidTime is the minimum remaining paid time below which an active
// deployment may be stopped or destroyed.
const minPaidTime = 10 * time.Minute

// Run stops or destroys every deployment in expired, respecting paid time.
// Failures are logged and the deployment is left in place for the next
// run to reclassify; they are never returned as errors.
func Run(ctx context.Context, log logr.Logger, rec *metrics.Recorder, eng nixops.Engine, pol policy.Policy, now time.Time, expired map[string]nixops.Deployment) {
	for _, d := range expired {
		retireOne(ctx, log, rec, eng, pol, now, d)
	}
}

func retireOne(ctx context.Context, log logr.Logger, rec *metrics.Recorder, eng nixops.Engine, pol policy.Policy, now time.Time, d nixops.Deployment) {
	if d.State.Active() {
		if timeLeft := d.TimeLeft(now); timeLeft >= minPaidTime {
			log.Info("not stopping/destroying deployment, paid time remaining", "name", d.Name, "timeLeft", timeLeft)
			return
		}
	}

	typeName := d.Args[inventory.ArgType]
	stopOnIdle := false
	if tp, ok := pol.SystemTypes[typeName]; ok {
		stopOnIdle = tp.StopOnIdle
	}

	if stopOnIdle {
		if d.State != nixops.StateStopped {
			log.Info("stopping deployment", "name", d.Name)
			if err := eng.StopMachines(ctx, d); err != nil {
				log.Error(err, "error stopping deployment", "name", d.Name)
				return
			}
			rec.IncDeploymentsStopped()
		}
		return
	}

	log.Info("destroying deployment", "name", d.Name)
	if err := eng.DestroyResources(ctx, d, true); err != nil {
		log.Error(err, "error destroying deployment resources", "name", d.Name)
		return
	}
	rec.IncDeploymentsDestroyed()

	if err := eng.Delete(ctx, d); err != nil {
		log.Error(err, "error deleting deployment record", "name", d.Name)
	}
}
