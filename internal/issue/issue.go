// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"slices"

	"github.com/charmbracelet/glamour"
)

type Id int

const (
	BoxfileNotFoundId Id = iota + 1
	BoxfileParseErrorId
	ContainerEngineNotFoundId
	KeyAlreadyExistsId
	ImageBuildFailedId
	HostPortInUseId
	ContainerUnreachableId
	SSHNotReadyId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to look up the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // optional pointers to reference documentation
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 {
		extraMd += "\n\n## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	boxfileNotFoundIssue = &Issue{
		id: BoxfileNotFoundId,
		mdMsg: `
# No boxfile found!

We searched for a boxfile but couldn't find one in the expected locations.

## Search locations (in order of precedence):
1. The path given via --boxfile
2. boxfile.cue in the current directory

## Things you can try:
- Create a boxfile in your current directory:
~~~
$ sshbox init
~~~

- Or run from the directory that contains one:
~~~
$ cd /path/to/your/project
$ sshbox up
~~~`,
	}

	boxfileParseErrorIssue = &Issue{
		id: BoxfileParseErrorId,
		mdMsg: `
# The boxfile could not be parsed!

The boxfile exists but contains invalid CUE or violates the schema.

## Things you can try:
- Check the reported line for syntax errors
- Compare your file against the reference:
~~~
$ sshbox docs
~~~`,
	}

	containerEngineNotFoundIssue = &Issue{
		id: ContainerEngineNotFoundId,
		mdMsg: `
# No container engine available!

Neither Docker nor Podman could be found on this system.

## Things you can try:
- Install Docker or Podman and make sure it is on your PATH
- If the daemon is installed but stopped, start it:
~~~
$ systemctl start docker
~~~
- Point sshbox at a specific engine in your config:
~~~cue
container_engine: "podman"
~~~`,
	}

	keyAlreadyExistsIssue = &Issue{
		id: KeyAlreadyExistsId,
		mdMsg: `
# A key already exists at that path!

sshbox refuses to overwrite existing key material unless asked to.

## Things you can try:
- Reuse the existing keypair (the default behavior of 'sshbox up')
- Generate at a different path:
~~~
$ sshbox key --path ~/.ssh/sshbox_alt
~~~
- Explicitly overwrite:
~~~
$ sshbox key --overwrite
~~~`,
	}

	imageBuildFailedIssue = &Issue{
		id: ImageBuildFailedId,
		mdMsg: `
# The image build failed!

The container engine reported a non-zero exit while building the image.

## Things you can try:
- Re-run with full build output:
~~~
$ sshbox build --verbose
~~~
- Check that the base image is pullable:
~~~
$ docker pull ubuntu:22.04
~~~
- Verify the package names in your boxfile exist in the base image's
  package repositories`,
	}

	hostPortInUseIssue = &Issue{
		id: HostPortInUseId,
		mdMsg: `
# The requested host port is already taken!

Another sshbox-managed container already claims this host port.

## Things you can try:
- List tracked containers and their ports:
~~~
$ sshbox status
~~~
- Stop and remove the conflicting container:
~~~
$ sshbox remove <name>
~~~
- Pick a different hostPort in your boxfile`,
	}

	containerUnreachableIssue = &Issue{
		id: ContainerUnreachableId,
		mdMsg: `
# The container is unreachable!

An exec into the container failed, so the key could not be authorized.

## Things you can try:
- Confirm the container is running:
~~~
$ sshbox status
~~~
- Start it if it was stopped:
~~~
$ sshbox start
~~~`,
	}

	sshNotReadyIssue = &Issue{
		id: SSHNotReadyId,
		mdMsg: `
# SSH never became ready!

The container is running but its SSH daemon did not answer the
handshake before the timeout elapsed.

## Things you can try:
- Give it more time:
~~~
$ sshbox wait --timeout 60s
~~~
- Inspect the daemon logs inside the container:
~~~
$ docker logs <container>
~~~
- Check that your boxfile installs and starts openssh-server`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

A file or directory could not be written.

## Things you can try:
- Check ownership and mode of ~/.ssh and the sshbox config directory
- Private keys must be mode 600 and ~/.ssh mode 700`,
	}

	registry = map[Id]*Issue{
		BoxfileNotFoundId:         boxfileNotFoundIssue,
		BoxfileParseErrorId:       boxfileParseErrorIssue,
		ContainerEngineNotFoundId: containerEngineNotFoundIssue,
		KeyAlreadyExistsId:        keyAlreadyExistsIssue,
		ImageBuildFailedId:        imageBuildFailedIssue,
		HostPortInUseId:           hostPortInUseIssue,
		ContainerUnreachableId:    containerUnreachableIssue,
		SSHNotReadyId:             sshNotReadyIssue,
		PermissionDeniedId:        permissionDeniedIssue,
	}
)

// Lookup returns the Issue registered under the given id, or nil when the id
// is unknown.
func Lookup(id Id) *Issue {
	return registry[id]
}
