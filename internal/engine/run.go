// Package engine wires the policy, status, inventory, sizer, reconcile,
// deploy, roster, and retire packages into a single reconciliation
// iteration.
package engine

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/openshift/hydra-provisioner/internal/deploy"
	"github.com/openshift/hydra-provisioner/internal/inventory"
	"github.com/openshift/hydra-provisioner/internal/metrics"
	"github.com/openshift/hydra-provisioner/internal/nixops"
	"github.com/openshift/hydra-provisioner/internal/policy"
	"github.com/openshift/hydra-provisioner/internal/reconcile"
	"github.com/openshift/hydra-provisioner/internal/roster"
	"github.com/openshift/hydra-provisioner/internal/retire"
	"github.com/openshift/hydra-provisioner/internal/sizer"
	"github.com/openshift/hydra-provisioner/internal/status"
)

// Context bundles the process-wide configuration a run needs, constructed
// once at start-up. There are no true package-level globals; every
// component that needs one of these values receives it explicitly.
type Context struct {
	Log            logr.Logger
	Metrics        *metrics.Recorder
	Engine         nixops.Engine
	RosterPath     string
	OwnModulesPath string
	Now            func() time.Time
}

// Run executes exactly one reconciliation iteration: fetch status, size
// demand, reconcile the inventory, deploy, emit the roster, and retire
// what's left over. Returns an error when the inventory cannot be listed,
// when creating a deployment or setting its recipe fails, or when the
// roster cannot be rendered or handed off; deploy, keep-alive, stop and
// destroy failures are logged and absorbed so the run completes
// best-effort.
func Run(ctx context.Context, rc Context, pol policy.Policy) error {
	now := time.Now
	if rc.Now != nil {
		now = rc.Now
	}

	st := status.Fetch(ctx, rc.Log, pol.StatusCommand)

	inv, err := inventory.Load(ctx, rc.Engine, pol.Tag)
	if err != nil {
		return errors.Wrap(err, "loading deployment inventory")
	}

	demand := sizer.Size(rc.Log, rc.Metrics, pol, st)

	result, err := reconcile.Run(ctx, rc.Log, rc.Metrics, rc.Engine, inv, pol, st, demand, now())
	if err != nil {
		return errors.Wrap(err, "reconciling deployments")
	}

	deployed, err := deploy.Run(ctx, rc.Log, rc.Metrics, rc.Engine, pol, rc.OwnModulesPath, result.InUse)
	if err != nil {
		return errors.Wrap(err, "deploying in-use deployments")
	}

	document, err := roster.Render(pol, deployed, result.Unusable)
	if err != nil {
		return errors.Wrap(err, "rendering worker roster")
	}

	if err := roster.Emit(ctx, document, pol.UpdateCommand, rc.RosterPath); err != nil {
		return errors.Wrap(err, "emitting worker roster")
	}

	retire.Run(ctx, rc.Log, rc.Metrics, rc.Engine, pol, now(), result.Expired)

	return nil
}
