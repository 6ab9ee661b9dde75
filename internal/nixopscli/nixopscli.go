// Package nixopscli implements nixops.Engine by shelling out to the
// nixops(1) command-line tool against a fixed deployment-state file. It
// is a narrow shim onto that external binary, not a reimplementation of
// the deployment engine itself.
package nixopscli

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"

	"github.com/openshift/hydra-provisioner/internal/nixops"
)

// Engine shells out to nixops for every capability nixops.Engine requires.
type Engine struct {
	// StateFile is passed as nixops's -s/--state-file flag. Empty uses
	// nixops's own default resolution (NIXOPS_STATE or ~/.nixops/...).
	StateFile string
	// SSHSigner authenticates RunCommand's session against each
	// deployment's pinned host key. Required for RunCommand to succeed.
	SSHSigner ssh.Signer
	// DialSSH is overridable for tests; production code leaves it nil to
	// use ssh.Dial against the host key recorded on the deployment.
	DialSSH func(network, addr string, config *ssh.ClientConfig) (*ssh.Client, error)
}

func (e *Engine) args(extra ...string) []string {
	argv := []string{}
	if e.StateFile != "" {
		argv = append(argv, "--state-file", e.StateFile)
	}
	return append(argv, extra...)
}

func (e *Engine) run(ctx context.Context, extra ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "nixops", e.args(extra...)...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return nil, errors.Wrapf(err, "nixops %v", extra)
	}
	return stdout.Bytes(), nil
}

type infoEntry struct {
	Name          string            `json:"name"`
	Args          map[string]string `json:"args"`
	State         string            `json:"status"`
	SSHName       string            `json:"sshName"`
	PublicHostKey string            `json:"publicHostKey"`
	NextCharge    int64             `json:"nextChargeTime"`
}

func toState(s string) nixops.State {
	switch s {
	case "up":
		return nixops.StateUp
	case "starting":
		return nixops.StateStarting
	case "stopped":
		return nixops.StateStopped
	default:
		return nixops.StateMissing
	}
}

// ListDeployments shells out to `nixops info --all --plain --json` and parses
// the result into nixops.Deployment handles.
func (e *Engine) ListDeployments(ctx context.Context) ([]nixops.Deployment, error) {
	out, err := e.run(ctx, "info", "--all", "--plain", "--json")
	if err != nil {
		return nil, err
	}

	var entries []infoEntry
	if err := json.Unmarshal(out, &entries); err != nil {
		return nil, errors.Wrap(err, "parsing nixops info output")
	}

	deployments := make([]nixops.Deployment, 0, len(entries))
	for _, entry := range entries {
		d := nixops.Deployment{
			Name:    entry.Name,
			Args:    entry.Args,
			State:   toState(entry.State),
			SSHName: entry.SSHName,
		}
		if entry.PublicHostKey != "" {
			d.PublicHostKey = []byte(entry.PublicHostKey)
		}
		if entry.NextCharge != 0 {
			d.NextChargeTime = time.Unix(entry.NextCharge, 0)
		}
		d.HasMachine = entry.SSHName != ""
		deployments = append(deployments, d)
	}
	return deployments, nil
}

func (e *Engine) CreateDeployment(ctx context.Context, name string, args map[string]string) (nixops.Deployment, error) {
	if _, err := e.run(ctx, "create", "--name", name); err != nil {
		return nixops.Deployment{}, err
	}
	for k, v := range args {
		if _, err := e.run(ctx, "set-args", "--deployment", name, "--argstr", k, v); err != nil {
			return nixops.Deployment{}, err
		}
	}
	return nixops.Deployment{Name: name, Args: args, State: nixops.StateMissing}, nil
}

func (e *Engine) SetRecipe(ctx context.Context, d nixops.Deployment, expr string, nixPath []string) error {
	argv := []string{"set-recipe", "--deployment", d.Name, expr}
	for _, p := range nixPath {
		argv = append(argv, "-I", p)
	}
	_, err := e.run(ctx, argv...)
	return err
}

func (e *Engine) Check(ctx context.Context, d nixops.Deployment) (nixops.State, error) {
	out, err := e.run(ctx, "check", "--deployment", d.Name, "--plain")
	if err != nil {
		return nixops.StateMissing, err
	}
	return toState(string(bytes.TrimSpace(out))), nil
}

func (e *Engine) DeployWithCheck(ctx context.Context, d nixops.Deployment) error {
	_, err := e.run(ctx, "deploy", "--deployment", d.Name, "--check")
	return err
}

func (e *Engine) RunCommand(ctx context.Context, d nixops.Deployment, argv []string) error {
	if len(d.PublicHostKey) == 0 {
		return errors.Errorf("deployment %q has no recorded host key, refusing to connect blind", d.Name)
	}

	hostKey, _, _, _, err := ssh.ParseAuthorizedKey(d.PublicHostKey)
	if err != nil {
		return errors.Wrapf(err, "parsing recorded host key for %q", d.Name)
	}

	if e.SSHSigner == nil {
		return errors.Errorf("no ssh signer configured, cannot authenticate to %q", d.SSHName)
	}

	config := &ssh.ClientConfig{
		User:            "root",
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(e.SSHSigner)},
		HostKeyCallback: ssh.FixedHostKey(hostKey),
		Timeout:         10 * time.Second,
	}

	dial := e.DialSSH
	if dial == nil {
		dial = ssh.Dial
	}

	client, err := dial("tcp", d.SSHName+":22", config)
	if err != nil {
		return errors.Wrapf(err, "dialing %q", d.SSHName)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return errors.Wrap(err, "opening ssh session")
	}
	defer session.Close()

	return session.Run(shellQuote(argv))
}

func shellQuote(argv []string) string {
	var buf bytes.Buffer
	for i, a := range argv {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(strconv.Quote(a))
	}
	return buf.String()
}

func (e *Engine) StopMachines(ctx context.Context, d nixops.Deployment) error {
	_, err := e.run(ctx, "stop", "--deployment", d.Name)
	return err
}

func (e *Engine) DestroyResources(ctx context.Context, d nixops.Deployment, autoConfirm bool) error {
	argv := []string{"destroy", "--deployment", d.Name}
	if autoConfirm {
		argv = append(argv, "--confirm")
	}
	_, err := e.run(ctx, argv...)
	return err
}

func (e *Engine) Delete(ctx context.Context, d nixops.Deployment) error {
	_, err := e.run(ctx, "delete", "--deployment", d.Name, "--force")
	return err
}

var _ nixops.Engine = (*Engine)(nil)
