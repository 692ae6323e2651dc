// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	CorpusRootMissingId Id = iota + 1
	AggregateWriteFailedId
	AggregateNotFoundId
	ConfigLoadFailedId
	BaselineParseFailedId
	ReportWriteFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty, because we need to have docs about all issue types
	extLinks []HttpLink  // external links that might be useful for the user
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

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	corpusRootMissingIssue = &Issue{
		id: CorpusRootMissingId,
		mdMsg: `
# Corpus root not found!

The directory you asked extscan to inventory does not exist or is not
readable. Nothing was scanned.

## Things you can try:
- Check the path passed via --root:
~~~
$ extscan scan --root /path/to/extension/corpus
~~~

- Verify the directory exists and you can list it:
~~~
$ ls /path/to/extension/corpus
~~~

- If the corpus lives inside an editor installation, point --root at the
  directory that contains the extension folders, not at a single extension.`,
	}

	aggregateWriteFailedIssue = &Issue{
		id: AggregateWriteFailedId,
		mdMsg: `
# Failed to write aggregate collections!

A collection file could not be persisted, so the scan was aborted rather
than left looking complete with missing data.

## Common causes:
- The output directory is on a read-only or full filesystem
- The output path exists but is a file, not a directory
- Another process removed the output directory mid-scan

## Things you can try:
- Point --out at a writable directory:
~~~
$ extscan scan --root ./corpus --out /tmp/extscan-out
~~~

- Check free disk space and permissions on the output directory
- Re-run the scan; collections are rewritten from scratch each run`,
	}

	aggregateNotFoundIssue = &Issue{
		id: AggregateNotFoundId,
		mdMsg: `
# No aggregate collections found!

The compat command re-assesses a previously scanned corpus, but no
collection files were found in the aggregate directory.

## Things you can try:
- Run a scan first:
~~~
$ extscan scan --root ./corpus --out ./extscan-out
~~~

- Point --out at the directory a previous scan wrote to:
~~~
$ extscan compat --out ./extscan-out
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Could not load the extscan configuration file.

## Configuration file locations:
- Linux: ~/.config/extscan/config.cue
- macOS: ~/Library/Application Support/extscan/config.cue
- Windows: %APPDATA%\extscan\config.cue

## Things you can try:
- Create a default configuration:
~~~
$ extscan config init
~~~

- Check the configuration syntax
- Remove the config file to use defaults:
~~~
$ rm ~/.config/extscan/config.cue
~~~

## Example configuration:
~~~cue
builtin_dir: "extensions"
workers: 4
checkpoint_every: 32
sample_cap: 5
extra_vendor_keywords: ["contoso"]

ui: {
  color_scheme: "auto"
  verbose: false
}
~~~`,
	}

	baselineParseFailedIssue = &Issue{
		id: BaselineParseFailedId,
		mdMsg: `
# Failed to parse the compatibility baseline!

The baseline file contains syntax errors or values the baseline schema
rejects.

## Common issues:
- Invalid CUE syntax (missing quotes, braces, etc.)
- Wrong types (requiredFields must be a list of strings)
- An invalid regular expression in versionPattern

## Things you can try:
- Check the error message above for the specific field
- Validate the file with the cue command-line tool
- Omit --baseline to assess against the built-in baseline

## Example baseline:
~~~cue
requiredFields: ["name", "version", "engineRequirement"]
knownCompatible: ["aws-toolkit"]
~~~`,
	}

	reportWriteFailedIssue = &Issue{
		id: ReportWriteFailedId,
		mdMsg: `
# Failed to write the report!

The scan completed but the report file could not be written.

## Things you can try:
- Check permissions and free space on the report path's directory
- Write the report somewhere else:
~~~
$ extscan scan --root ./corpus --report /tmp/report.md
~~~

- The aggregate collections were still persisted; re-running with a fixed
  report path does not require a re-scan:
~~~
$ extscan compat --out ./extscan-out
~~~`,
	}

	issues = map[Id]*Issue{
		corpusRootMissingIssue.Id():    corpusRootMissingIssue,
		aggregateWriteFailedIssue.Id(): aggregateWriteFailedIssue,
		aggregateNotFoundIssue.Id():    aggregateNotFoundIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		baselineParseFailedIssue.Id():  baselineParseFailedIssue,
		reportWriteFailedIssue.Id():    reportWriteFailedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
