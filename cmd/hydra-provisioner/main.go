// Command hydra-provisioner reconciles build-farm worker deployments
// against dispatcher backlog. See cmd/root for the command definition.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"github.com/openshift/hydra-provisioner/cmd/root"
	"github.com/openshift/hydra-provisioner/internal/nixops"
	"github.com/openshift/hydra-provisioner/internal/nixopscli"
)

func newEngine() (nixops.Engine, error) {
	keyPath := os.Getenv("NIXOPS_SSH_KEY")
	if keyPath == "" {
		keyPath = os.ExpandEnv("$HOME/.ssh/id_ed25519")
	}
	keyBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading ssh private key %q", keyPath)
	}
	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing ssh private key %q", keyPath)
	}

	return &nixopscli.Engine{
		StateFile: os.Getenv("NIXOPS_STATE"),
		SSHSigner: signer,
	}, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := root.NewCommand(newEngine)
	if err := cmd.ExecuteContext(ctx); err != nil {
		logrus.WithError(err).Error("hydra-provisioner exiting with error")
		os.Exit(1)
	}
}
