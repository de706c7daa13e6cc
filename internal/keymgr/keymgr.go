// SPDX-License-Identifier: MPL-2.0

// Package keymgr manages the SSH keypairs used to access sshbox containers.
//
// Key material is generated with charmbracelet/keygen and never overwritten
// unless the caller explicitly allows it. A generated pair is immutable from
// this package's point of view: subsequent runs load and validate it.
package keymgr

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/keygen"
	"golang.org/x/crypto/ssh"
)

const (
	// AlgorithmEd25519 is the default key algorithm.
	AlgorithmEd25519 Algorithm = "ed25519"
	// AlgorithmRSA is supported for hosts that cannot use ed25519 keys.
	AlgorithmRSA Algorithm = "rsa"

	// rsaBitSize is the modulus size used for RSA keys.
	rsaBitSize = 4096

	privateKeyMode os.FileMode = 0o600
	publicKeyMode  os.FileMode = 0o644
)

var (
	// ErrKeyGeneration is the sentinel error wrapped by KeyGenerationError.
	ErrKeyGeneration = errors.New("key generation failed")

	// ErrKeyExists is returned when the target path already holds a key and
	// overwriting was not permitted.
	ErrKeyExists = errors.New("key already exists")

	// ErrInvalidAlgorithm is the sentinel error wrapped by InvalidAlgorithmError.
	ErrInvalidAlgorithm = errors.New("invalid key algorithm")
)

type (
	// Algorithm selects the keypair algorithm.
	Algorithm string

	// InvalidAlgorithmError is returned when an Algorithm is not recognized.
	InvalidAlgorithmError struct {
		Value Algorithm
	}

	// KeyGenerationError is returned when a keypair could not be created.
	KeyGenerationError struct {
		Path  string
		Cause error
	}

	// KeyPair describes a generated or loaded SSH keypair on disk.
	// Immutable once created; the paths outlive the process.
	KeyPair struct {
		PrivateKeyPath string
		PublicKeyPath  string
		Algorithm      Algorithm

		authorizedKey string
	}

	// GenerateOptions configures Generate.
	GenerateOptions struct {
		// Algorithm defaults to ed25519 when empty.
		Algorithm Algorithm
		// Passphrase optionally encrypts the private key.
		Passphrase string
		// Overwrite permits replacing an existing keypair at the path.
		Overwrite bool
	}
)

// Error implements the error interface.
func (e *InvalidAlgorithmError) Error() string {
	return fmt.Sprintf("invalid key algorithm %q (valid: ed25519, rsa)", e.Value)
}

// Unwrap returns ErrInvalidAlgorithm so callers can use errors.Is.
func (e *InvalidAlgorithmError) Unwrap() error { return ErrInvalidAlgorithm }

// Validate returns an error if the Algorithm is not one of the defined
// algorithms. The zero value ("") is valid and means ed25519.
func (a Algorithm) Validate() error {
	switch a {
	case AlgorithmEd25519, AlgorithmRSA, "":
		return nil
	default:
		return &InvalidAlgorithmError{Value: a}
	}
}

// String returns the string representation of the Algorithm.
func (a Algorithm) String() string { return string(a) }

// keyType maps the Algorithm to keygen's key type.
func (a Algorithm) keyType() keygen.KeyType {
	if a == AlgorithmRSA {
		return keygen.RSA
	}
	return keygen.Ed25519
}

// Error implements the error interface.
func (e *KeyGenerationError) Error() string {
	return fmt.Sprintf("generate keypair at %s: %v", e.Path, e.Cause)
}

// Unwrap returns the cause chained behind ErrKeyGeneration, so both
// errors.Is(err, ErrKeyGeneration) and errors.Is(err, ErrKeyExists) work.
func (e *KeyGenerationError) Unwrap() error { return e.Cause }

// Is reports whether target is ErrKeyGeneration.
func (e *KeyGenerationError) Is(target error) bool { return target == ErrKeyGeneration }

// AuthorizedKey returns the public key in authorized_keys line format,
// without a trailing newline.
func (k *KeyPair) AuthorizedKey() string {
	return k.authorizedKey
}

// Generate creates a keypair at privateKeyPath (public key alongside with a
// .pub suffix). The private key file is written mode 600, the public key 644.
// An existing pair is refused unless opts.Overwrite is set.
func Generate(privateKeyPath string, opts GenerateOptions) (*KeyPair, error) {
	if err := opts.Algorithm.Validate(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(privateKeyPath); err == nil {
		if !opts.Overwrite {
			return nil, &KeyGenerationError{Path: privateKeyPath, Cause: ErrKeyExists}
		}
		if err := removePair(privateKeyPath); err != nil {
			return nil, &KeyGenerationError{Path: privateKeyPath, Cause: err}
		}
	}

	kgOpts := []keygen.Option{
		keygen.WithKeyType(opts.Algorithm.keyType()),
		keygen.WithWrite(),
	}
	if opts.Algorithm == AlgorithmRSA {
		kgOpts = append(kgOpts, keygen.WithBitSize(rsaBitSize))
	}
	if opts.Passphrase != "" {
		kgOpts = append(kgOpts, keygen.WithPassphrase(opts.Passphrase))
	}

	kp, err := keygen.New(privateKeyPath, kgOpts...)
	if err != nil {
		return nil, &KeyGenerationError{Path: privateKeyPath, Cause: err}
	}

	publicKeyPath := privateKeyPath + ".pub"

	// keygen writes restrictive modes itself; re-assert them so the
	// guarantee does not depend on the library's umask handling.
	if err := os.Chmod(privateKeyPath, privateKeyMode); err != nil {
		return nil, &KeyGenerationError{Path: privateKeyPath, Cause: err}
	}
	if err := os.Chmod(publicKeyPath, publicKeyMode); err != nil {
		return nil, &KeyGenerationError{Path: publicKeyPath, Cause: err}
	}

	algorithm := opts.Algorithm
	if algorithm == "" {
		algorithm = AlgorithmEd25519
	}

	return &KeyPair{
		PrivateKeyPath: privateKeyPath,
		PublicKeyPath:  publicKeyPath,
		Algorithm:      algorithm,
		authorizedKey:  strings.TrimSpace(kp.AuthorizedKey()),
	}, nil
}

// Load validates an existing keypair at privateKeyPath and returns it.
// The public key must parse as an authorized_keys line.
func Load(privateKeyPath string) (*KeyPair, error) {
	if _, err := os.Stat(privateKeyPath); err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}

	publicKeyPath := privateKeyPath + ".pub"
	pubData, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("public key: %w", err)
	}

	pub, _, _, _, err := ssh.ParseAuthorizedKey(pubData)
	if err != nil {
		return nil, fmt.Errorf("parse public key %s: %w", publicKeyPath, err)
	}

	algorithm := AlgorithmEd25519
	if strings.Contains(pub.Type(), "rsa") {
		algorithm = AlgorithmRSA
	}

	return &KeyPair{
		PrivateKeyPath: privateKeyPath,
		PublicKeyPath:  publicKeyPath,
		Algorithm:      algorithm,
		authorizedKey:  strings.TrimSpace(string(ssh.MarshalAuthorizedKey(pub))),
	}, nil
}

// LoadOrGenerate returns the existing pair at privateKeyPath, generating a
// fresh one when none exists. This is the default behavior of 'sshbox up'.
func LoadOrGenerate(privateKeyPath string, opts GenerateOptions) (*KeyPair, error) {
	if _, err := os.Stat(privateKeyPath); err == nil {
		return Load(privateKeyPath)
	}
	return Generate(privateKeyPath, opts)
}

// removePair deletes both halves of an existing keypair.
func removePair(privateKeyPath string) error {
	if err := os.Remove(privateKeyPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Remove(privateKeyPath + ".pub"); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
