// SPDX-License-Identifier: MPL-2.0

package keymgr

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestGenerate_CreatesPairWithModes(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "id_ed25519")

	kp, err := Generate(path, GenerateOptions{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if kp.Algorithm != AlgorithmEd25519 {
		t.Fatalf("expected ed25519 default, got %q", kp.Algorithm)
	}
	if kp.PublicKeyPath != path+".pub" {
		t.Fatalf("unexpected public key path %q", kp.PublicKeyPath)
	}
	if !strings.HasPrefix(kp.AuthorizedKey(), "ssh-ed25519 ") {
		t.Fatalf("unexpected authorized key %q", kp.AuthorizedKey())
	}
	if strings.HasSuffix(kp.AuthorizedKey(), "\n") {
		t.Fatal("authorized key must not carry a trailing newline")
	}

	if runtime.GOOS != "windows" {
		privInfo, err := os.Stat(kp.PrivateKeyPath)
		if err != nil {
			t.Fatal(err)
		}
		if privInfo.Mode().Perm() != 0o600 {
			t.Fatalf("private key mode = %o, want 600", privInfo.Mode().Perm())
		}
		pubInfo, err := os.Stat(kp.PublicKeyPath)
		if err != nil {
			t.Fatal(err)
		}
		if pubInfo.Mode().Perm() != 0o644 {
			t.Fatalf("public key mode = %o, want 644", pubInfo.Mode().Perm())
		}
	}
}

func TestGenerate_RefusesExistingWithoutOverwrite(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "id_ed25519")

	if _, err := Generate(path, GenerateOptions{}); err != nil {
		t.Fatalf("first Generate: %v", err)
	}

	_, err := Generate(path, GenerateOptions{})
	if !errors.Is(err, ErrKeyGeneration) {
		t.Fatalf("expected ErrKeyGeneration, got %v", err)
	}
	if !errors.Is(err, ErrKeyExists) {
		t.Fatalf("expected ErrKeyExists in chain, got %v", err)
	}
}

func TestGenerate_OverwriteReplacesPair(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "id_ed25519")

	first, err := Generate(path, GenerateOptions{})
	if err != nil {
		t.Fatal(err)
	}

	second, err := Generate(path, GenerateOptions{Overwrite: true})
	if err != nil {
		t.Fatalf("overwrite Generate: %v", err)
	}

	if first.AuthorizedKey() == second.AuthorizedKey() {
		t.Fatal("overwrite must produce fresh key material")
	}
}

func TestGenerate_InvalidAlgorithm(t *testing.T) {
	t.Parallel()
	_, err := Generate(filepath.Join(t.TempDir(), "k"), GenerateOptions{Algorithm: "dsa"})
	if !errors.Is(err, ErrInvalidAlgorithm) {
		t.Fatalf("expected ErrInvalidAlgorithm, got %v", err)
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "id_ed25519")

	generated, err := Generate(path, GenerateOptions{})
	if err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.AuthorizedKey() != generated.AuthorizedKey() {
		t.Fatalf("loaded key %q differs from generated %q",
			loaded.AuthorizedKey(), generated.AuthorizedKey())
	}
	if loaded.Algorithm != AlgorithmEd25519 {
		t.Fatalf("unexpected algorithm %q", loaded.Algorithm)
	}
}

func TestLoad_MissingPrivateKey(t *testing.T) {
	t.Parallel()
	if _, err := Load(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestLoad_CorruptPublicKey(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	priv := filepath.Join(dir, "id_ed25519")
	if err := os.WriteFile(priv, []byte("not a key"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(priv+".pub", []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(priv); err == nil {
		t.Fatal("expected parse error for corrupt public key")
	}
}

func TestLoadOrGenerate(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "id_ed25519")

	first, err := LoadOrGenerate(path, GenerateOptions{})
	if err != nil {
		t.Fatalf("LoadOrGenerate (generate path): %v", err)
	}

	second, err := LoadOrGenerate(path, GenerateOptions{})
	if err != nil {
		t.Fatalf("LoadOrGenerate (load path): %v", err)
	}

	if first.AuthorizedKey() != second.AuthorizedKey() {
		t.Fatal("second call must reuse the existing pair")
	}
}
