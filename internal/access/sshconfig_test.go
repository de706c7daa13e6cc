// SPDX-License-Identifier: MPL-2.0

package access

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func testEntry() HostEntry {
	return HostEntry{
		Alias:        "dev.box",
		HostName:     "127.0.0.1",
		Port:         2222,
		User:         "dev",
		IdentityFile: "/home/me/.ssh/sshbox_dev",
	}
}

func TestWriteClientConfig_CreatesFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), ".ssh", "config")

	if err := WriteClientConfig(path, testEntry()); err != nil {
		t.Fatalf("WriteClientConfig: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	content := string(data)
	for _, want := range []string{
		"# sshbox:begin dev.box",
		"Host dev.box",
		"    Port 2222",
		"    User dev",
		"    IdentityFile /home/me/.ssh/sshbox_dev",
		"# sshbox:end dev.box",
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("config missing %q:\n%s", want, content)
		}
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat: %v", err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Fatalf("expected 0600, got %o", info.Mode().Perm())
		}
	}
}

func TestWriteClientConfig_PreservesForeignContent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config")
	foreign := "Host work\n    HostName work.example.com\n    User me\n"
	if err := os.WriteFile(path, []byte(foreign), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := WriteClientConfig(path, testEntry()); err != nil {
		t.Fatalf("WriteClientConfig: %v", err)
	}

	data, _ := os.ReadFile(path)
	content := string(data)
	if !strings.Contains(content, "Host work") {
		t.Fatalf("foreign content lost:\n%s", content)
	}
	if !strings.Contains(content, "Host dev.box") {
		t.Fatalf("managed block missing:\n%s", content)
	}
}

func TestWriteClientConfig_ReplacesExistingBlock(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config")

	entry := testEntry()
	if err := WriteClientConfig(path, entry); err != nil {
		t.Fatalf("first write: %v", err)
	}

	entry.Port = 3333
	if err := WriteClientConfig(path, entry); err != nil {
		t.Fatalf("second write: %v", err)
	}

	data, _ := os.ReadFile(path)
	content := string(data)
	if strings.Contains(content, "Port 2222") {
		t.Fatalf("stale port survived replacement:\n%s", content)
	}
	if !strings.Contains(content, "Port 3333") {
		t.Fatalf("new port missing:\n%s", content)
	}
	if strings.Count(content, "# sshbox:begin dev.box") != 1 {
		t.Fatalf("expected exactly one managed block:\n%s", content)
	}
}

func TestWriteClientConfig_IndependentAliases(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config")

	first := testEntry()
	second := testEntry()
	second.Alias = "other.box"
	second.Port = 2300

	if err := WriteClientConfig(path, first); err != nil {
		t.Fatalf("write first: %v", err)
	}
	if err := WriteClientConfig(path, second); err != nil {
		t.Fatalf("write second: %v", err)
	}

	data, _ := os.ReadFile(path)
	content := string(data)
	if !strings.Contains(content, "Host dev.box") || !strings.Contains(content, "Host other.box") {
		t.Fatalf("expected both blocks:\n%s", content)
	}
}

func TestRemoveClientConfig(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config")

	if err := RemoveClientConfig(path, "dev.box"); err != nil {
		t.Fatalf("removing from a missing file must be a no-op, got %v", err)
	}

	foreign := "Host work\n    HostName work.example.com\n"
	if err := os.WriteFile(path, []byte(foreign), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := WriteClientConfig(path, testEntry()); err != nil {
		t.Fatalf("WriteClientConfig: %v", err)
	}
	if err := RemoveClientConfig(path, "dev.box"); err != nil {
		t.Fatalf("RemoveClientConfig: %v", err)
	}

	data, _ := os.ReadFile(path)
	content := string(data)
	if strings.Contains(content, "dev.box") {
		t.Fatalf("managed block survived removal:\n%s", content)
	}
	if !strings.Contains(content, "Host work") {
		t.Fatalf("foreign content lost:\n%s", content)
	}
}

func TestRemoveClientConfig_AliasPrefixDoesNotMatch(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config")

	longer := testEntry()
	longer.Alias = "dev.boxy"
	if err := WriteClientConfig(path, longer); err != nil {
		t.Fatalf("WriteClientConfig: %v", err)
	}

	// "dev.box" is a prefix of "dev.boxy"; removing it must not touch
	// the longer alias's block.
	if err := RemoveClientConfig(path, "dev.box"); err != nil {
		t.Fatalf("RemoveClientConfig: %v", err)
	}

	data, _ := os.ReadFile(path)
	content := string(data)
	for _, want := range []string{"# sshbox:begin dev.boxy", "Host dev.boxy", "# sshbox:end dev.boxy"} {
		if !strings.Contains(content, want) {
			t.Fatalf("block for dev.boxy damaged, missing %q:\n%s", want, content)
		}
	}
}
