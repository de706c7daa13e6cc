// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{
			name: "operation only",
			err:  &ActionableError{Operation: "generate SSH keypair"},
			want: "failed to generate SSH keypair",
		},
		{
			name: "with resource",
			err:  &ActionableError{Operation: "load boxfile", Resource: "boxfile.cue"},
			want: "failed to load boxfile: boxfile.cue",
		},
		{
			name: "with stage and cause",
			err: &ActionableError{
				Stage:     "build",
				Operation: "build container image",
				Cause:     errors.New("exit status 1"),
			},
			want: "[build] failed to build container image: exit status 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Fatalf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()
	cause := errors.New("connection refused")
	err := NewErrorContext().
		WithStage("access").
		WithOperation("authorize public key").
		WithResource("/home/dev/.ssh/authorized_keys").
		WithSuggestion("Check the container is running").
		Wrap(cause).
		Build()

	if err == nil {
		t.Fatal("expected non-nil error")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be in the error chain")
	}
	if !err.HasSuggestions() {
		t.Fatal("expected suggestions")
	}
}

func TestErrorContext_BuildWithoutOperation(t *testing.T) {
	t.Parallel()
	if err := NewErrorContext().WithResource("x").BuildError(); err != nil {
		t.Fatalf("expected nil error without operation, got %v", err)
	}
}

func TestActionableError_FormatVerboseIncludesChain(t *testing.T) {
	t.Parallel()
	inner := errors.New("dial tcp: connection refused")
	err := &ActionableError{
		Operation:   "poll SSH port",
		Suggestions: []string{"Give it more time"},
		Cause:       inner,
	}

	out := err.Format(true)
	if !strings.Contains(out, "Error chain:") {
		t.Fatalf("verbose format missing error chain: %q", out)
	}
	if !strings.Contains(out, "• Give it more time") {
		t.Fatalf("format missing suggestion: %q", out)
	}

	terse := err.Format(false)
	if strings.Contains(terse, "Error chain:") {
		t.Fatalf("non-verbose format should not include chain: %q", terse)
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()
	if got := Lookup(HostPortInUseId); got == nil || got.Id() != HostPortInUseId {
		t.Fatalf("Lookup(HostPortInUseId) = %v", got)
	}
	if got := Lookup(Id(9999)); got != nil {
		t.Fatalf("expected nil for unknown id, got %v", got)
	}
}

func TestIssue_RenderIncludesDocLinks(t *testing.T) {
	// Overrides the package-level render hook; not parallel.
	orig := render
	defer func() { render = orig }()
	var rendered string
	render = func(in, stylePath string) (string, error) {
		rendered = in
		return in, nil
	}

	i := &Issue{
		id:       SSHNotReadyId,
		mdMsg:    "# SSH never became ready!",
		docLinks: []HttpLink{"https://example.com/docs/ssh"},
	}
	if _, err := i.Render("auto"); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(rendered, "See also") {
		t.Fatalf("expected doc links section, got %q", rendered)
	}
}
