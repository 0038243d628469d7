// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	BackendUnavailableId Id = iota + 1
	ConfigLoadFailedId
	UnknownManagerId
	ControlServerFailedId
	WatchLimitReachedId
)

type (
	Id int

	MarkdownMsg string

	HttpLink string

	Issue struct {
		id       Id          // ID used to lookup the issue
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink  // project documentation pages
		extLinks []HttpLink  // external links that might be useful for the user
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
		for _, link := range i.extLinks {
			extraMd += "\n- <" + string(link) + ">"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	backendUnavailableIssue = &Issue{
		id: BackendUnavailableId,
		mdMsg: `
# Clipboard not available!

pmswitch could not attach to the system clipboard, so monitoring was not started.

## Why this happens
- On Linux the clipboard is reached through xclip, xsel or wl-clipboard; none was found
- There is no display server (SSH session, container, CI runner)

## Things you can try:
- Install a clipboard helper:
~~~
$ sudo apt install xclip        # X11
$ sudo apt install wl-clipboard # Wayland
~~~

- Use a plain file as the shared buffer instead:
~~~
$ pmswitch watch --backend file --file ~/.cache/pmswitch/buffer
~~~`,
		extLinks: []HttpLink{"https://github.com/atotto/clipboard"},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file exists but could not be read or does not match the schema.

## Things you can try:
- Print the path pmswitch reads from:
~~~
$ pmswitch config path
~~~

- Regenerate a valid file with the defaults:
~~~
$ pmswitch config init --force
~~~

## Example configuration
~~~cue
preferred_manager: "pnpm"
monitor: {
	backend:       "clipboard"
	mode:          "poll"
	poll_interval: "500ms"
}
~~~`,
		extLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	unknownManagerIssue = &Issue{
		id: UnknownManagerId,
		mdMsg: `
# Unknown package manager!

Only four package managers are recognized: **npm**, **pnpm**, **yarn** and **bun**.
Names are case-sensitive.

## Things you can try:
- List the recognized managers and their runner forms:
~~~
$ pmswitch managers
~~~`,
	}

	controlServerFailedIssue = &Issue{
		id: ControlServerFailedId,
		mdMsg: `
# Control server could not start!

The HTTP control API failed to listen on the configured address.

## Things you can try:
- Check whether another pmswitch instance is already running
- Pick another address:
~~~
$ pmswitch watch --listen 127.0.0.1:7718
~~~
- Disable the control API by omitting --listen and setting "control.enabled: false"`,
	}

	watchLimitReachedIssue = &Issue{
		id: WatchLimitReachedId,
		mdMsg: `
# File watch limit reached!

The operating system refused to add another file watch, so change notification
for the buffer file stopped.

## Things you can try:
- Raise the inotify limits (Linux):
~~~
$ sudo sysctl fs.inotify.max_user_watches=524288
$ sudo sysctl fs.inotify.max_user_instances=512
~~~
- Fall back to polling:
~~~
$ pmswitch watch --backend file --mode poll
~~~`,
		extLinks: []HttpLink{"https://github.com/fsnotify/fsnotify"},
	}

	issues = map[Id]*Issue{
		backendUnavailableIssue.Id():  backendUnavailableIssue,
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		unknownManagerIssue.Id():      unknownManagerIssue,
		controlServerFailedIssue.Id(): controlServerFailedIssue,
		watchLimitReachedIssue.Id():   watchLimitReachedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := maps.Values(issues)
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
