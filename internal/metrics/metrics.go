// Package metrics exposes the controller's own operational counters and
// gauges, independent of anything the dispatcher or deployment engine
// report about themselves.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder bundles the reconciliation metrics for one controller instance.
// A *Recorder is nil-safe on every method so components can be exercised
// in tests without wiring a registry.
type Recorder struct {
	wantedMachines       *prometheus.GaugeVec
	allowedMachines      *prometheus.GaugeVec
	deploymentsCreated   prometheus.Counter
	deployFailures       prometheus.Counter
	deploymentsStopped   prometheus.Counter
	deploymentsDestroyed prometheus.Counter
}

// NewRecorder creates and registers the controller's metrics on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		wantedMachines: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hydra_provisioner_wanted_machines",
			Help: "Machines the sizer computed as wanted for a machine type, before clamping.",
		}, []string{"type"}),
		allowedMachines: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hydra_provisioner_allowed_machines",
			Help: "Machines the sizer allowed for a machine type, after clamping to policy.",
		}, []string{"type"}),
		deploymentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hydra_provisioner_deployments_created_total",
			Help: "Deployments created by the reconciler across all runs.",
		}),
		deployFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hydra_provisioner_deploy_failures_total",
			Help: "Deployments whose deploy-with-check or keep-alive touch returned an error.",
		}),
		deploymentsStopped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hydra_provisioner_deployments_stopped_total",
			Help: "Deployments stopped by retirement.",
		}),
		deploymentsDestroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hydra_provisioner_deployments_destroyed_total",
			Help: "Deployments destroyed by retirement.",
		}),
	}
	reg.MustRegister(
		r.wantedMachines,
		r.allowedMachines,
		r.deploymentsCreated,
		r.deployFailures,
		r.deploymentsStopped,
		r.deploymentsDestroyed,
	)
	return r
}

func (r *Recorder) ObserveDemand(typeName string, wanted, allowed int) {
	if r == nil {
		return
	}
	r.wantedMachines.WithLabelValues(typeName).Set(float64(wanted))
	r.allowedMachines.WithLabelValues(typeName).Set(float64(allowed))
}

func (r *Recorder) IncDeploymentsCreated() {
	if r == nil {
		return
	}
	r.deploymentsCreated.Inc()
}

func (r *Recorder) IncDeployFailures() {
	if r == nil {
		return
	}
	r.deployFailures.Inc()
}

func (r *Recorder) IncDeploymentsStopped() {
	if r == nil {
		return
	}
	r.deploymentsStopped.Inc()
}

func (r *Recorder) IncDeploymentsDestroyed() {
	if r == nil {
		return
	}
	r.deploymentsDestroyed.Inc()
}
