// SPDX-License-Identifier: MPL-2.0

package access

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type (
	// HostEntry describes one managed Host block in the SSH client config.
	HostEntry struct {
		Alias        string
		HostName     string
		Port         int
		User         string
		IdentityFile string
	}
)

// Marker comments bracket managed blocks so they can be replaced without
// disturbing the rest of the file.
const (
	beginMarkerFmt = "# sshbox:begin %s"
	endMarkerFmt   = "# sshbox:end %s"
)

// DefaultClientConfigPath returns the user's SSH client config location.
func DefaultClientConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home dir: %w", err)
	}
	return filepath.Join(home, ".ssh", "config"), nil
}

// WriteClientConfig installs or replaces the managed Host block for the
// entry's alias in the config file at path. Content outside the managed
// block is preserved byte for byte. The file and its parent directory are
// created on first use with SSH-appropriate permissions.
func WriteClientConfig(path string, entry HostEntry) error {
	if entry.Alias == "" {
		return fmt.Errorf("host entry needs an alias")
	}

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading ssh config: %w", err)
	}

	updated := replaceBlock(string(existing), entry.Alias, renderBlock(entry))

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating ssh config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		return fmt.Errorf("writing ssh config: %w", err)
	}
	return nil
}

// RemoveClientConfig drops the managed Host block for an alias. A missing
// file or block is a no-op.
func RemoveClientConfig(path, alias string) error {
	existing, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading ssh config: %w", err)
	}

	updated, found := cutBlock(string(existing), alias)
	if !found {
		return nil
	}
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		return fmt.Errorf("writing ssh config: %w", err)
	}
	return nil
}

func renderBlock(entry HostEntry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, beginMarkerFmt+"\n", entry.Alias)
	fmt.Fprintf(&sb, "Host %s\n", entry.Alias)
	fmt.Fprintf(&sb, "    HostName %s\n", entry.HostName)
	fmt.Fprintf(&sb, "    Port %d\n", entry.Port)
	fmt.Fprintf(&sb, "    User %s\n", entry.User)
	if entry.IdentityFile != "" {
		fmt.Fprintf(&sb, "    IdentityFile %s\n", entry.IdentityFile)
		sb.WriteString("    IdentitiesOnly yes\n")
	}
	// Container host keys change on every rebuild, so pinning them would
	// make every rebuild a hard failure.
	sb.WriteString("    StrictHostKeyChecking no\n")
	sb.WriteString("    UserKnownHostsFile /dev/null\n")
	fmt.Fprintf(&sb, endMarkerFmt+"\n", entry.Alias)
	return sb.String()
}

// replaceBlock swaps the managed block for alias with the new rendering,
// appending it when no block exists yet.
func replaceBlock(content, alias, block string) string {
	remainder, found := cutBlock(content, alias)
	if !found {
		remainder = content
	}
	if remainder != "" && !strings.HasSuffix(remainder, "\n") {
		remainder += "\n"
	}
	if remainder != "" {
		remainder += "\n"
	}
	return remainder + block
}

// cutBlock removes the managed block for alias, reporting whether one was
// present.
func cutBlock(content, alias string) (string, bool) {
	begin := fmt.Sprintf(beginMarkerFmt, alias)
	end := fmt.Sprintf(endMarkerFmt, alias)

	startIdx := markerIndex(content, begin)
	if startIdx == -1 {
		return content, false
	}
	endIdx := markerIndex(content[startIdx:], end)
	if endIdx == -1 {
		// Orphaned begin marker; cut through the end of the line so a
		// broken file still converges.
		return content[:startIdx], true
	}
	after := startIdx + endIdx + len(end)
	if after < len(content) && content[after] == '\n' {
		after++
	}

	before := strings.TrimRight(content[:startIdx], "\n")
	rest := strings.TrimLeft(content[after:], "\n")
	switch {
	case before == "":
		return rest, true
	case rest == "":
		return before + "\n", true
	default:
		return before + "\n\n" + rest, true
	}
}

// markerIndex locates marker as a complete line. A plain substring search
// would let alias "dev.box" match inside a "dev.boxy" marker.
func markerIndex(content, marker string) int {
	offset := 0
	for {
		idx := strings.Index(content[offset:], marker)
		if idx == -1 {
			return -1
		}
		idx += offset
		tail := content[idx+len(marker):]
		atLineStart := idx == 0 || content[idx-1] == '\n'
		atLineEnd := tail == "" || tail[0] == '\n'
		if atLineStart && atLineEnd {
			return idx
		}
		offset = idx + len(marker)
	}
}
