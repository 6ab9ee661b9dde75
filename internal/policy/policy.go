// Package policy loads and defaults the controller's declarative policy
// document by invoking the external config evaluator.
package policy

import (
	"context"
	"encoding/json"
	"os/exec"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
)

// DefaultTag is used when a policy document omits "tag".
const DefaultTag = "hydra-provisioned"

var (
	// DefaultStatusCommand is used when a policy document omits
	// "statusCommand".
	DefaultStatusCommand = []string{"hydra-queue-runner", "--status"}
	// DefaultEvaluator is the argv prefix used to evaluate the policy
	// file itself; the config file path is appended as the final
	// argument.
	DefaultEvaluator = []string{"nix-instantiate", "--eval", "--strict", "--json"}
)

// supportedPolicyVersions bounds the optional "policyVersion" field. The
// original hydra-provisioner config format has no such field, so a
// document that omits it is accepted without a version check.
var supportedPolicyVersions = mustConstraint(">=1.0.0, <2.0.0")

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// TypePolicy is the per-machine-type portion of a Policy.
type TypePolicy struct {
	NixopsExpr          string
	NixPath             []string
	RunnablesPerMachine int
	IgnoredRunnables    int
	MinMachines         int
	MaxMachines         int
	GracePeriod         time.Duration
	StopOnIdle          bool
	SSHKey              string
	MaxJobs             int
	SpeedFactor         int
}

// Policy is the fully defaulted, typed configuration for one controller
// run.
type Policy struct {
	Tag           string
	StatusCommand []string
	UpdateCommand []string
	SystemTypes   map[string]TypePolicy
}

// rawPolicy mirrors the JSON document produced by the config evaluator,
// before defaulting.
type rawPolicy struct {
	PolicyVersion string                   `json:"policyVersion"`
	Tag           string                   `json:"tag"`
	StatusCommand []string                 `json:"statusCommand"`
	UpdateCommand []string                 `json:"updateCommand"`
	SystemTypes   map[string]rawTypePolicy `json:"systemTypes"`
}

type rawTypePolicy struct {
	NixopsExpr          string   `json:"nixopsExpr"`
	NixPath             []string `json:"nixPath"`
	RunnablesPerMachine *int     `json:"runnablesPerMachine"`
	IgnoredRunnables    *int     `json:"ignoredRunnables"`
	MinMachines         *int     `json:"minMachines"`
	MaxMachines         *int     `json:"maxMachines"`
	GracePeriod         *int     `json:"gracePeriod"`
	StopOnIdle          bool     `json:"stopOnIdle"`
	SSHKey              string   `json:"sshKey"`
	MaxJobs             *int     `json:"maxJobs"`
	SpeedFactor         *int     `json:"speedFactor"`
}

// Load invokes the config evaluator on configPath and returns the
// defaulted Policy. A non-zero exit from the evaluator, or a document that
// fails to parse, is fatal to the run per spec: callers should treat any
// returned error as a reason to exit 1 before any side effect.
func Load(ctx context.Context, log logr.Logger, configPath string) (Policy, error) {
	return load(ctx, log, DefaultEvaluator, configPath)
}

func load(ctx context.Context, log logr.Logger, evaluator []string, configPath string) (Policy, error) {
	argv := append(append([]string{}, evaluator...), configPath)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.Output()
	if err != nil {
		return Policy{}, errors.Wrapf(err, "evaluating policy %q", configPath)
	}

	var raw rawPolicy
	if err := json.Unmarshal(out, &raw); err != nil {
		return Policy{}, errors.Wrapf(err, "parsing policy evaluator output for %q", configPath)
	}

	if raw.PolicyVersion != "" {
		v, err := semver.NewVersion(raw.PolicyVersion)
		if err != nil {
			return Policy{}, errors.Wrapf(err, "parsing policyVersion %q", raw.PolicyVersion)
		}
		if !supportedPolicyVersions.Check(v) {
			return Policy{}, errors.Errorf("policyVersion %q is not supported by this controller", raw.PolicyVersion)
		}
	}

	return defaultPolicy(log, raw), nil
}

func defaultPolicy(log logr.Logger, raw rawPolicy) Policy {
	p := Policy{
		Tag:           raw.Tag,
		StatusCommand: raw.StatusCommand,
		UpdateCommand: raw.UpdateCommand,
		SystemTypes:   map[string]TypePolicy{},
	}
	if p.Tag == "" {
		p.Tag = DefaultTag
	}
	if len(p.StatusCommand) == 0 {
		p.StatusCommand = DefaultStatusCommand
	}

	for name, rt := range raw.SystemTypes {
		p.SystemTypes[name] = defaultTypePolicy(log, name, rt)
	}
	return p
}

func defaultTypePolicy(log logr.Logger, name string, rt rawTypePolicy) TypePolicy {
	t := TypePolicy{
		NixopsExpr:  rt.NixopsExpr,
		NixPath:     rt.NixPath,
		StopOnIdle:  rt.StopOnIdle,
		SSHKey:      rt.SSHKey,
		MaxJobs:     intOr(rt.MaxJobs, 1),
		SpeedFactor: intOr(rt.SpeedFactor, 1),
	}
	if t.SSHKey == "" {
		t.SSHKey = "-"
	}

	t.RunnablesPerMachine = intOr(rt.RunnablesPerMachine, 10)
	t.IgnoredRunnables = intOr(rt.IgnoredRunnables, 0)
	t.MinMachines = intOr(rt.MinMachines, 0)
	t.MaxMachines = intOr(rt.MaxMachines, 1)
	t.GracePeriod = time.Duration(intOr(rt.GracePeriod, 0)) * time.Second

	if t.MinMachines > t.MaxMachines {
		log.Info("type policy has minMachines > maxMachines, clamping max up to min",
			"type", name, "min", t.MinMachines, "max", t.MaxMachines)
		t.MaxMachines = t.MinMachines
	}

	return t
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
