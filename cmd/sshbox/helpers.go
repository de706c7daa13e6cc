// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"

	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"sshbox-cli/internal/access"
	"sshbox-cli/internal/config"
	"sshbox-cli/internal/container"
	"sshbox-cli/internal/imagebuild"
	"sshbox-cli/internal/issue"
	"sshbox-cli/internal/keymgr"
	"sshbox-cli/internal/pipeline"
	"sshbox-cli/internal/runner"
	"sshbox-cli/pkg/boxfile"
)

// boxfileFlag is the shared --boxfile flag value.
var boxfileFlag string

// addBoxfileFlag registers the --boxfile flag on commands that read one.
func addBoxfileFlag(c *cobra.Command) {
	c.Flags().StringVarP(&boxfileFlag, "boxfile", "f", boxfile.DefaultFileName, "path to the boxfile")
}

// glamourStyle maps the configured color scheme onto a glamour style.
func glamourStyle() string {
	switch cfg.UI.ColorScheme {
	case "dark":
		return styles.DarkStyle
	case "light":
		return styles.LightStyle
	case "none":
		return styles.NoTTYStyle
	default:
		return styles.AutoStyle
	}
}

// printIssue renders a known issue to stderr. Rendering problems are
// swallowed: the wrapped error still reaches the user on the error path.
func printIssue(id issue.Id) {
	if i := issue.Lookup(id); i != nil {
		rendered, _ := i.Render(glamourStyle())
		fmt.Fprint(os.Stderr, rendered)
	}
}

// issueFor maps a failure onto its rendered issue, when one is registered.
func issueFor(err error) (issue.Id, bool) {
	switch {
	case errors.Is(err, runner.ErrPortInUse):
		return issue.HostPortInUseId, true
	case errors.Is(err, imagebuild.ErrBuild):
		return issue.ImageBuildFailedId, true
	case errors.Is(err, access.ErrAccessDenied):
		return issue.ContainerUnreachableId, true
	case errors.Is(err, pipeline.ErrNotReady):
		return issue.SSHNotReadyId, true
	case errors.Is(err, keymgr.ErrKeyExists):
		return issue.KeyAlreadyExistsId, true
	case errors.Is(err, fs.ErrPermission):
		return issue.PermissionDeniedId, true
	}
	return 0, false
}

// loadSpec reads and validates the boxfile.
func loadSpec() (*boxfile.ImageSpec, error) {
	bf, err := boxfile.Load(boxfileFlag)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			printIssue(issue.BoxfileNotFoundId)
		} else {
			printIssue(issue.BoxfileParseErrorId)
		}
		return nil, issue.NewErrorContext().
			WithOperation("load boxfile").
			WithResource(boxfileFlag).
			WithSuggestion("Run 'sshbox init' to create a starter boxfile").
			WithSuggestion("Check that the file contains valid CUE syntax").
			Wrap(err).
			BuildError()
	}
	return &bf.Box, nil
}

// newEngine resolves the container engine from configuration.
func newEngine() (container.Engine, error) {
	var (
		engine container.Engine
		err    error
	)
	switch cfg.ContainerEngine {
	case "docker":
		engine, err = container.NewEngine(container.EngineTypeDocker)
	case "podman":
		engine, err = container.NewEngine(container.EngineTypePodman)
	default:
		engine, err = container.AutoDetectEngine()
	}
	if err != nil {
		printIssue(issue.ContainerEngineNotFoundId)
		return nil, err
	}
	return engine, nil
}

// newStore opens the persisted handle store.
func newStore() (*runner.Store, error) {
	path, err := runner.DefaultStorePath()
	if err != nil {
		return nil, err
	}
	return runner.NewStore(path), nil
}

// newRunner wires an engine and store into a Runner.
func newRunner() (*runner.Runner, container.Engine, error) {
	engine, err := newEngine()
	if err != nil {
		return nil, nil, err
	}
	store, err := newStore()
	if err != nil {
		return nil, nil, err
	}
	return runner.NewRunner(engine, store, log.Default()), engine, nil
}

// keyPath resolves the client private key location from config.
func keyPath() (string, error) {
	if cfg.SSH.KeyPath != "" {
		return cfg.SSH.KeyPath, nil
	}
	return config.DefaultKeyPath()
}

// keyAlgorithm resolves the configured key algorithm.
func keyAlgorithm() keymgr.Algorithm {
	return keymgr.Algorithm(cfg.SSH.KeyAlgorithm)
}

// sshConfigPath resolves the managed SSH client config path, or "" when
// client config management is disabled.
func sshConfigPath() (string, error) {
	if !cfg.SSH.ManageClientConfig {
		return "", nil
	}
	if cfg.SSH.ClientConfigPath != "" {
		return cfg.SSH.ClientConfigPath, nil
	}
	return access.DefaultClientConfigPath()
}

// sshAddr is the loopback endpoint a box is published on.
func sshAddr(hostPort int) string {
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(hostPort))
}

// stageExit converts pipeline failures into per-stage exit codes while
// keeping the message intact for display.
func stageExit(err error) error {
	if err == nil {
		return nil
	}
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		return &ExitError{Code: stageErr.ExitCode(), Err: err}
	}
	return err
}

// requireBoxArg resolves the box name from args, falling back to the
// boxfile when no name is given.
func requireBoxArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	spec, err := loadSpec()
	if err != nil {
		return "", fmt.Errorf("no box name given and no boxfile found: %w", err)
	}
	return spec.Name, nil
}
