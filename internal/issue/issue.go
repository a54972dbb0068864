// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	FileNotFoundId Id = iota + 1
	ResolutionFailedId
	RetrievalFailedId
	EvaluationFailedId
	ConfigLoadFailedId
	ImportMapInvalidId
	UnsupportedSchemeId
	HostCommandDeniedId
	DependencyCycleId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // lookup key
	mdMsg    MarkdownMsg // rendered with glamour
	docLinks []HttpLink
	extLinks []HttpLink
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

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the guidance as terminal Markdown. stylePath is a glamour
// style name ("dark", "light", "notty") or a path to a style file.
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if links := append(i.DocLinks(), i.extLinks...); len(links) > 0 {
		md.WriteString("\n\n## See also:\n")
		for _, link := range links {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	fileNotFoundIssue = &Issue{
		id: FileNotFoundId,
		mdMsg: `
# File not found!

The module or document you asked for does not exist on disk.

## Things you can try:
- Check the path for typos
- Relative ids are resolved against the base URL, see it with:
~~~
$ sysmod config show
~~~`,
	}

	resolutionFailedIssue = &Issue{
		id: ResolutionFailedId,
		mdMsg: `
# Module specifier could not be resolved!

Bare specifiers such as ` + "`lodash`" + ` only resolve through an import map.

## Things you can try:
- Add an entry to ` + "`system.config.cue`" + `:
~~~cue
map: imports: {
	"lodash": "./vendor/lodash.sh"
}
~~~
- Use a relative id (` + "`./lib/x.sh`" + `) or a full URL instead
- Inspect the active import map:
~~~
$ sysmod importmap
~~~`,
		extLinks: []HttpLink{"https://github.com/WICG/import-maps"},
	}

	retrievalFailedIssue = &Issue{
		id: RetrievalFailedId,
		mdMsg: `
# Module source could not be fetched!

The specifier resolved, but nothing could be read from the resulting URL.

## Things you can try:
- Check the resolved URL with ` + "`sysmod resolve <id>`" + `
- For http(s) modules, check connectivity and the server's status code
- Raise ` + "`http.timeout`" + ` in your configuration for slow servers`,
	}

	evaluationFailedIssue = &Issue{
		id: EvaluationFailedId,
		mdMsg: `
# Module evaluation failed!

A module failed while being parsed, declared or executed. A failed module
stays failed for the rest of the run.

## Things you can try:
- Run with ` + "`--verbose`" + ` to see which phase failed
- Shell modules export with ` + "`provide NAME VALUE`" + ` or ` + "`provide K=V ...`" + `
- Data modules must be valid CUE, JSON, YAML or TOML`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Your sysmod configuration file could not be loaded.

## Things you can try:
- Check the CUE syntax of your config file
- Print the default configuration:
~~~
$ sysmod config show
~~~
- Recreate it:
~~~
$ sysmod config init --force
~~~`,
	}

	importMapInvalidIssue = &Issue{
		id: ImportMapInvalidId,
		mdMsg: `
# Import map is invalid!

Import maps hold string targets only:
~~~json
{"imports": {"app": "./app.sh"}, "scopes": {"/vendor/": {"dep": "./dep.sh"}}}
~~~

## Things you can try:
- Make sure every target is a string
- Scope prefixes should end with ` + "`/`",
		extLinks: []HttpLink{"https://html.spec.whatwg.org/multipage/webappapis.html#import-maps"},
	}

	unsupportedSchemeIssue = &Issue{
		id: UnsupportedSchemeId,
		mdMsg: `
# Unsupported URL scheme!

Modules can be loaded from ` + "`file:`" + `, ` + "`http:`" + ` and ` + "`https:`" + ` URLs.`,
	}

	hostCommandDeniedIssue = &Issue{
		id: HostCommandDeniedId,
		mdMsg: `
# Host command denied!

A shell module tried to run a program outside the module builtins.

## Things you can try:
- Allow host commands for this run with ` + "`--allow-exec`" + `
- Or set it in your configuration:
~~~cue
shell: allow_exec: true
~~~`,
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Dependency cycle!

The module graph contains a cycle. Cycles are allowed, but modules in a
cycle may observe each other's exports before they are set.

## Things you can try:
- Read exports lazily with ` + "`get`" + ` instead of at the top of the module
- Move shared values into a module both sides import`,
	}

	issues = map[Id]*Issue{
		fileNotFoundIssue.Id():      fileNotFoundIssue,
		resolutionFailedIssue.Id():  resolutionFailedIssue,
		retrievalFailedIssue.Id():   retrievalFailedIssue,
		evaluationFailedIssue.Id():  evaluationFailedIssue,
		configLoadFailedIssue.Id():  configLoadFailedIssue,
		importMapInvalidIssue.Id():  importMapInvalidIssue,
		unsupportedSchemeIssue.Id(): unsupportedSchemeIssue,
		hostCommandDeniedIssue.Id(): hostCommandDeniedIssue,
		dependencyCycleIssue.Id():   dependencyCycleIssue,
	}
)

// Values returns every issue, ordered by id.
func Values() []*Issue {
	out := maps.Values(issues)
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
