// Package root assembles the hydra-provisioner command tree, following the
// teacher's cmd/<verb>/NewCommand() *cobra.Command convention.
package root

import (
	"net/http"
	"os"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/openshift/hydra-provisioner/internal/deploy"
	"github.com/openshift/hydra-provisioner/internal/engine"
	hlog "github.com/openshift/hydra-provisioner/internal/log"
	"github.com/openshift/hydra-provisioner/internal/metrics"
	"github.com/openshift/hydra-provisioner/internal/nixops"
	"github.com/openshift/hydra-provisioner/internal/policy"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewEngineFunc constructs the deployment-engine backend this binary talks
// to. It is a function, not a direct import, so that cmd stays agnostic of
// any concrete nixops backend; production builds wire a real
// implementation in main.go.
type NewEngineFunc func() (nixops.Engine, error)

type options struct {
	metricsAddr string
	devLog      bool
	every       string
	rosterPath  string
}

// NewCommand builds the root hydra-provisioner command. newEngine is
// invoked once per process, before the first iteration, to obtain the
// deployment-engine handle that every iteration then shares.
func NewCommand(newEngine NewEngineFunc) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "hydra-provisioner <CONFIG-FILE>",
		Short: "Reconcile build-farm worker deployments against dispatcher backlog",
		Long: "hydra-provisioner reconciles the set of ephemeral worker machines " +
			"attached to a CI build dispatcher against the dispatcher's current " +
			"backlog. It is meant to be invoked periodically (minutely) by an " +
			"external scheduler; concurrent invocations are undefined behaviour " +
			"and should be prevented with an external lock such as flock(1).",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runE(cmd, opts, newEngine, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on; disabled if empty")
	cmd.Flags().BoolVar(&opts.devLog, "dev-log", false, "use human-readable console logging instead of JSON")
	cmd.Flags().StringVar(&opts.every, "every", "", "cron expression; if set, the controller stays resident and reconciles on this schedule instead of running once")
	cmd.Flags().StringVar(&opts.rosterPath, "roster-path", "", "override the worker-roster file path (ignored if the policy sets an updateCommand)")

	cmd.AddCommand(newVersionCommand())

	return cmd
}

func runE(cmd *cobra.Command, opts *options, newEngine NewEngineFunc, configPath string) error {
	log := hlog.New(opts.devLog)
	ctx := cmd.Context()

	var rec *metrics.Recorder
	if opts.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		rec = metrics.NewRecorder(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		server := &http.Server{Addr: opts.metricsAddr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error(err, "metrics server exited")
			}
		}()
	}

	pol, err := policy.Load(ctx, log, configPath)
	if err != nil {
		return errors.Wrap(err, "loading policy")
	}

	eng, err := newEngine()
	if err != nil {
		return errors.Wrap(err, "initialising deployment engine")
	}

	executable, err := os.Executable()
	if err != nil {
		executable = os.Args[0]
	}

	rc := engine.Context{
		Log:            log,
		Metrics:        rec,
		Engine:         eng,
		RosterPath:     opts.rosterPath,
		OwnModulesPath: deploy.OwnModulesPath(executable),
	}

	iterate := func() {
		if err := engine.Run(ctx, rc, pol); err != nil {
			log.Error(err, "reconciliation run failed")
		}
	}

	if opts.every == "" {
		if err := engine.Run(ctx, rc, pol); err != nil {
			return err
		}
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(opts.every, iterate); err != nil {
		return errors.Wrapf(err, "parsing --every cron expression %q", opts.every)
	}
	c.Start()
	defer c.Stop()

	iterate()
	<-ctx.Done()
	return nil
}
