// Package deploy applies pending deployments and touches a liveness
// sentinel on each freshly deployed worker.
package deploy

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/openshift/hydra-provisioner/internal/inventory"
	"github.com/openshift/hydra-provisioner/internal/metrics"
	"github.com/openshift/hydra-provisioner/internal/nixops"
	"github.com/openshift/hydra-provisioner/internal/policy"
)

// KeepAliveSentinel is touched on a worker's machine after a successful
// deploy, so external health checks can distinguish a freshly deployed
// machine from one that merely booted.
const KeepAliveSentinel = "/run/keep-alive"

// OwnModulesPath resolves the controller's own nix module search path, so
// a deployment recipe can import a provisioner helper shipped alongside
// the binary. It mirrors the source's fallback: a sibling
// share/nix/hydra-provisioner directory next to the executable, or the
// executable's own directory if that doesn't exist.
func OwnModulesPath(executable string) string {
	dir := filepath.Dir(executable)
	candidate := filepath.Join(dir, "..", "share", "nix", "hydra-provisioner")
	if resolved, err := filepath.Abs(candidate); err == nil {
		if _, err := os.Stat(resolved); err == nil {
			return resolved
		}
	}
	return dir
}

// Deployed is the set of deployments that completed (re)deploy and
// keep-alive in this run, keyed by name. Only deployments in Deployed
// are eligible for the emitted roster.
type Deployed map[string]nixops.Deployment

// Run (re)deploys every deployment in inUse, sequentially, and touches the
// keep-alive sentinel on success. A deploy or keep-alive failure excludes
// that deployment from the returned set and logs the failure; the run
// continues with the rest. This chooses the stricter of the two
// interpretations available in the source: a keep-alive failure after a
// successful deploy still excludes the deployment from the roster.
func Run(ctx context.Context, log logr.Logger, rec *metrics.Recorder, eng nixops.Engine, pol policy.Policy, ownModules string, inUse map[string]nixops.Deployment) (Deployed, error) {
	deployed := Deployed{}

	for _, d := range inUse {
		runID := uuid.New()
		dlog := log.WithValues("name", d.Name, "deployID", runID)

		typeName := d.Args[inventory.ArgType]
		nixPath := append([]string{}, pol.SystemTypes[typeName].NixPath...)
		nixPath = append(nixPath, "hydra-provisioner="+ownModules)
		if err := eng.SetRecipe(ctx, d, pol.SystemTypes[typeName].NixopsExpr, nixPath); err != nil {
			return nil, errors.Wrapf(err, "extending recipe search path for %q", d.Name)
		}

		dlog.Info("updating deployment")
		if err := eng.DeployWithCheck(ctx, d); err != nil {
			dlog.Error(err, "error deploying")
			rec.IncDeployFailures()
			continue
		}

		if err := eng.RunCommand(ctx, d, []string{"touch", KeepAliveSentinel}); err != nil {
			dlog.Error(err, "error touching keep-alive sentinel")
			rec.IncDeployFailures()
			continue
		}

		deployed[d.Name] = d
	}

	return deployed, nil
}
