// SPDX-License-Identifier: MPL-2.0

package imagebuild

import (
	"fmt"
	"strings"

	"sshbox-cli/pkg/boxfile"
)

// RenderDockerfile produces the build definition for an image spec. The
// output is a pure function of the spec: the same spec always renders the
// same bytes, which is what makes image tags content-addressable.
func RenderDockerfile(spec *boxfile.ImageSpec) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "FROM %s\n\n", spec.BaseImage)
	sb.WriteString("# sshbox-rendered layer; edit the boxfile, not this file\n\n")

	packages := append([]string{"openssh-server"}, spec.Packages...)
	sb.WriteString("RUN apt-get update \\\n")
	fmt.Fprintf(&sb, "    && apt-get install -y --no-install-recommends %s \\\n",
		strings.Join(dedupe(packages), " "))
	sb.WriteString("    && rm -rf /var/lib/apt/lists/*\n\n")

	// sshd refuses to start without its privilege separation directory.
	sb.WriteString("RUN mkdir -p /run/sshd\n\n")

	fmt.Fprintf(&sb, "RUN useradd -m -s /bin/bash %s\n", spec.User)
	switch spec.PasswordPolicy {
	case boxfile.PasswordPolicyHashed:
		fmt.Fprintf(&sb, "RUN usermod -p '%s' %s\n", spec.PasswordHash, spec.User)
	default:
		fmt.Fprintf(&sb, "RUN usermod -L %s\n", spec.User)
	}
	sb.WriteString("\n")

	sb.WriteString("RUN sed -i \\\n")
	sb.WriteString("    -e 's/^#\\?PasswordAuthentication .*/PasswordAuthentication no/' \\\n")
	sb.WriteString("    -e 's/^#\\?PubkeyAuthentication .*/PubkeyAuthentication yes/' \\\n")
	fmt.Fprintf(&sb, "    -e 's/^#\\?Port .*/Port %d/' \\\n", spec.SSHPort())
	sb.WriteString("    /etc/ssh/sshd_config\n\n")

	fmt.Fprintf(&sb, "EXPOSE %d\n\n", spec.SSHPort())
	sb.WriteString("CMD [\"/usr/sbin/sshd\", \"-D\", \"-e\"]\n")

	return sb.String()
}

// dedupe removes repeated package names while preserving order, so a boxfile
// that lists openssh-server explicitly does not install it twice.
func dedupe(packages []string) []string {
	seen := make(map[string]bool, len(packages))
	out := make([]string, 0, len(packages))
	for _, p := range packages {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
