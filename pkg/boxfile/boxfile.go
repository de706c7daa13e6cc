// SPDX-License-Identifier: MPL-2.0

// Package boxfile defines the declarative dev container specification and its
// CUE-backed loader. A boxfile describes what to build (base image, packages,
// user account) and how to expose it (SSH port mapping, mounts); the rest of
// the system consumes the decoded ImageSpec and never re-reads the file.
package boxfile

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"sshbox-cli/pkg/cueutil"
)

// DefaultFileName is the boxfile looked up in the working directory when no
// explicit path is given.
const DefaultFileName = "boxfile.cue"

const (
	// PasswordPolicyLocked disables password login; access is key-only.
	PasswordPolicyLocked PasswordPolicy = "locked"
	// PasswordPolicyHashed sets the account password to a caller-supplied
	// crypt(3) hash.
	PasswordPolicyHashed PasswordPolicy = "hashed"
)

var (
	// ErrInvalidPasswordPolicy is the sentinel error wrapped by InvalidPasswordPolicyError.
	ErrInvalidPasswordPolicy = errors.New("invalid password policy")

	// ErrInvalidMount is the sentinel error wrapped by InvalidMountError.
	ErrInvalidMount = errors.New("invalid mount")

	// ErrInvalidImageSpec is the sentinel error wrapped by InvalidImageSpecError.
	ErrInvalidImageSpec = errors.New("invalid image spec")
)

//go:embed boxfile_schema.cue
var boxfileSchema string

type (
	// Boxfile is the top-level decoded document.
	Boxfile struct {
		Box ImageSpec `json:"box"`
	}

	// ImageSpec defines the build inputs for one SSH-ready dev container.
	// It is consumed once by the image builder; the derived image tag is a
	// pure function of its contents.
	ImageSpec struct {
		Name           string         `json:"name"`
		BaseImage      string         `json:"baseImage"`
		Packages       []string       `json:"packages"`
		User           string         `json:"user"`
		PasswordPolicy PasswordPolicy `json:"passwordPolicy"`
		PasswordHash   string         `json:"passwordHash,omitempty"`
		ExposedPort    int            `json:"exposedPort"`
		HostPort       int            `json:"hostPort"`
		Mounts         []Mount        `json:"mounts"`
	}

	// Mount is a host directory bind-mounted into the container.
	Mount struct {
		HostPath      string `json:"hostPath"`
		ContainerPath string `json:"containerPath"`
		ReadOnly      bool   `json:"readOnly"`
	}

	// PasswordPolicy controls how the provisioned account's password is set.
	PasswordPolicy string

	// InvalidPasswordPolicyError is returned when a PasswordPolicy is not recognized.
	InvalidPasswordPolicyError struct {
		Value PasswordPolicy
	}

	// InvalidMountError is returned when a Mount has one or more invalid fields.
	InvalidMountError struct {
		Value     Mount
		FieldErrs []error
	}

	// InvalidImageSpecError is returned when an ImageSpec violates a
	// constraint the CUE schema cannot express.
	InvalidImageSpecError struct {
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidPasswordPolicyError) Error() string {
	return fmt.Sprintf("invalid password policy %q (valid: locked, hashed)", e.Value)
}

// Unwrap returns ErrInvalidPasswordPolicy so callers can use errors.Is.
func (e *InvalidPasswordPolicyError) Unwrap() error { return ErrInvalidPasswordPolicy }

// Validate returns an error if the PasswordPolicy is not one of the defined
// policies. The zero value ("") is valid and treated as locked.
func (p PasswordPolicy) Validate() error {
	switch p {
	case PasswordPolicyLocked, PasswordPolicyHashed, "":
		return nil
	default:
		return &InvalidPasswordPolicyError{Value: p}
	}
}

// String returns the string representation of the PasswordPolicy.
func (p PasswordPolicy) String() string { return string(p) }

// Error implements the error interface.
func (e *InvalidMountError) Error() string {
	return fmt.Sprintf("invalid mount %s:%s: %d field error(s)",
		e.Value.HostPath, e.Value.ContainerPath, len(e.FieldErrs))
}

// Unwrap returns ErrInvalidMount so callers can use errors.Is.
func (e *InvalidMountError) Unwrap() error { return ErrInvalidMount }

// Validate returns an error if either path of the Mount is empty or
// whitespace-only.
func (m Mount) Validate() error {
	var errs []error
	if strings.TrimSpace(m.HostPath) == "" {
		errs = append(errs, fmt.Errorf("host path must be non-empty"))
	}
	if strings.TrimSpace(m.ContainerPath) == "" {
		errs = append(errs, fmt.Errorf("container path must be non-empty"))
	}
	if len(errs) > 0 {
		return &InvalidMountError{Value: m, FieldErrs: errs}
	}
	return nil
}

// String returns the mount in "host:container[:ro]" format.
func (m Mount) String() string {
	s := m.HostPath + ":" + m.ContainerPath
	if m.ReadOnly {
		s += ":ro"
	}
	return s
}

// Error implements the error interface.
func (e *InvalidImageSpecError) Error() string {
	return "invalid image spec: " + e.Reason
}

// Unwrap returns ErrInvalidImageSpec so callers can use errors.Is.
func (e *InvalidImageSpecError) Unwrap() error { return ErrInvalidImageSpec }

// Validate checks the constraints the CUE schema cannot express: the
// password hash must be present exactly when the policy requires it, and
// mount container paths must be unique.
func (s *ImageSpec) Validate() error {
	if err := s.PasswordPolicy.Validate(); err != nil {
		return err
	}

	if s.PasswordPolicy == PasswordPolicyHashed && s.PasswordHash == "" {
		return &InvalidImageSpecError{Reason: "passwordPolicy \"hashed\" requires passwordHash"}
	}
	if s.PasswordPolicy != PasswordPolicyHashed && s.PasswordHash != "" {
		return &InvalidImageSpecError{Reason: "passwordHash is only allowed with passwordPolicy \"hashed\""}
	}

	seen := make(map[string]bool, len(s.Mounts))
	for _, m := range s.Mounts {
		if err := m.Validate(); err != nil {
			return err
		}
		if seen[m.ContainerPath] {
			return &InvalidImageSpecError{
				Reason: fmt.Sprintf("duplicate mount container path %q", m.ContainerPath),
			}
		}
		seen[m.ContainerPath] = true
	}

	return nil
}

// SSHPort returns the container-side sshd port, defaulting to 22 when the
// decoded value is zero (defensive: the schema default normally applies).
func (s *ImageSpec) SSHPort() int {
	if s.ExposedPort == 0 {
		return 22
	}
	return s.ExposedPort
}

// Load reads and validates a boxfile from the given path.
func Load(path string) (*Boxfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read boxfile: %w", err)
	}
	return Parse(data, path)
}

// Parse validates boxfile bytes against the embedded schema and decodes them.
// The filename is used only for error messages.
func Parse(data []byte, filename string) (*Boxfile, error) {
	result, err := cueutil.ParseAndDecodeString[Boxfile](
		boxfileSchema,
		data,
		"#Boxfile",
		cueutil.WithFilename(filename),
	)
	if err != nil {
		return nil, err
	}

	if err := result.Value.Box.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	return result.Value, nil
}
