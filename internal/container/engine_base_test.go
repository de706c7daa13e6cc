// SPDX-License-Identifier: MPL-2.0

package container

import (
	"errors"
	"slices"
	"testing"
)

func TestBuildArgs(t *testing.T) {
	t.Parallel()
	e := NewBaseCLIEngine("/usr/bin/docker", WithName("docker"))

	args := e.BuildArgs(BuildOptions{
		ContextDir: "/tmp/ctx",
		Dockerfile: "Dockerfile",
		Tag:        "sshbox/dev:abc123",
		NoCache:    true,
	})

	want := []string{"build", "-f", "/tmp/ctx/Dockerfile", "-t", "sshbox/dev:abc123", "--no-cache", "/tmp/ctx"}
	if !slices.Equal(args, want) {
		t.Fatalf("BuildArgs = %v, want %v", args, want)
	}
}

func TestBuildArgs_AbsoluteDockerfile(t *testing.T) {
	t.Parallel()
	e := NewBaseCLIEngine("/usr/bin/docker")

	args := e.BuildArgs(BuildOptions{
		ContextDir: "/tmp/ctx",
		Dockerfile: "/elsewhere/Dockerfile",
	})

	if args[1] != "-f" || args[2] != "/elsewhere/Dockerfile" {
		t.Fatalf("absolute Dockerfile path should be used as-is, got %v", args)
	}
}

func TestStartArgs(t *testing.T) {
	t.Parallel()
	e := NewBaseCLIEngine("/usr/bin/docker")

	args := e.StartArgs(StartOptions{
		Image: "sshbox/dev:abc123",
		Name:  "sshbox-dev",
		Ports: []PortMapping{{HostPort: 2222, ContainerPort: 22}},
		Volumes: []VolumeMount{
			{HostPath: "/home/me/src", ContainerPath: "/workspace"},
		},
	})

	want := []string{
		"run", "-d",
		"--name", "sshbox-dev",
		"-p", "2222:22",
		"-v", "/home/me/src:/workspace",
		"sshbox/dev:abc123",
	}
	if !slices.Equal(args, want) {
		t.Fatalf("StartArgs = %v, want %v", args, want)
	}
}

func TestExecArgs(t *testing.T) {
	t.Parallel()
	e := NewBaseCLIEngine("/usr/bin/docker")

	args := e.ExecArgs("abc", []string{"sh", "-c", "true"}, ExecOptions{
		Interactive: true,
		TTY:         true,
		User:        "dev",
	})

	want := []string{"exec", "-i", "-t", "-u", "dev", "abc", "sh", "-c", "true"}
	if !slices.Equal(args, want) {
		t.Fatalf("ExecArgs = %v, want %v", args, want)
	}
}

func TestStopAndRemoveArgs(t *testing.T) {
	t.Parallel()
	e := NewBaseCLIEngine("/usr/bin/docker")

	if got := e.StopArgs("abc"); !slices.Equal(got, []string{"stop", "abc"}) {
		t.Fatalf("StopArgs = %v", got)
	}
	if got := e.RemoveArgs("abc", false); !slices.Equal(got, []string{"rm", "abc"}) {
		t.Fatalf("RemoveArgs = %v", got)
	}
	if got := e.RemoveArgs("abc", true); !slices.Equal(got, []string{"rm", "-f", "abc"}) {
		t.Fatalf("RemoveArgs force = %v", got)
	}
	if got := e.RemoveImageArgs("img", true); !slices.Equal(got, []string{"rmi", "-f", "img"}) {
		t.Fatalf("RemoveImageArgs = %v", got)
	}
}

func TestParsePortMapping(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    PortMapping
		wantErr bool
	}{
		{in: "2222:22", want: PortMapping{HostPort: 2222, ContainerPort: 22}},
		{in: "80:8080", want: PortMapping{HostPort: 80, ContainerPort: 8080}},
		{in: "2222", wantErr: true},
		{in: "0:22", wantErr: true},
		{in: "abc:22", wantErr: true},
		{in: "70000:22", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParsePortMapping(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParsePortMapping(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPortMapping_ValidateZeroHostPort(t *testing.T) {
	t.Parallel()
	err := PortMapping{HostPort: 0, ContainerPort: 22}.Validate()
	if !errors.Is(err, ErrInvalidPortMapping) {
		t.Fatalf("expected ErrInvalidPortMapping, got %v", err)
	}
	var mappingErr *InvalidPortMappingError
	if !errors.As(err, &mappingErr) || len(mappingErr.FieldErrs) != 1 {
		t.Fatalf("expected one field error, got %v", err)
	}
}

func TestVolumeMount_String(t *testing.T) {
	t.Parallel()
	tests := []struct {
		mount VolumeMount
		want  string
	}{
		{VolumeMount{HostPath: "/a", ContainerPath: "/b"}, "/a:/b"},
		{VolumeMount{HostPath: "/a", ContainerPath: "/b", ReadOnly: true}, "/a:/b:ro"},
		{VolumeMount{HostPath: "/a", ContainerPath: "/b", SELinux: SELinuxLabelShared}, "/a:/b:z"},
		{VolumeMount{HostPath: "/a", ContainerPath: "/b", ReadOnly: true, SELinux: SELinuxLabelPrivate}, "/a:/b:ro,Z"},
	}
	for _, tt := range tests {
		if got := tt.mount.String(); got != tt.want {
			t.Fatalf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestVolumeMount_Validate(t *testing.T) {
	t.Parallel()
	err := VolumeMount{HostPath: " ", ContainerPath: "/b"}.Validate()
	if !errors.Is(err, ErrInvalidVolumeMount) {
		t.Fatalf("expected ErrInvalidVolumeMount, got %v", err)
	}
	if err := (VolumeMount{HostPath: "/a", ContainerPath: "/b"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
