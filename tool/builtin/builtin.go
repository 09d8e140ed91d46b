// Package builtin provides ready-made tools for shell access, file editing
// and HTTP fetching.
//
// Tool faults (missing files, failing commands, unreachable hosts) are
// reported as result text so the model can react; they never abort a run.
// Shell and file tools operate on the host by default, or inside a
// sandbox.Provider when one is configured with WithSandbox.
package builtin

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/hupe1980/agentkit/logging"
	"github.com/hupe1980/agentkit/sandbox"
	"github.com/hupe1980/agentkit/tool"
)

// Tool names.
const (
	NameShell         = "execute_shell"
	NameReadFile      = "read_file"
	NameWriteFile     = "write_file"
	NameEditFile      = "edit_file"
	NameListDirectory = "list_directory"
	NameWebFetch      = "web_fetch"
)

// ErrUnknownTool is returned by New for names without a built-in tool.
var ErrUnknownTool = errors.New("unknown built-in tool")

// Options configures built-in tools.
type Options struct {
	// Sandbox routes shell and file tools into a provider instead of the host.
	Sandbox sandbox.Provider
	// HTTPClient is used by web_fetch. Defaults to a client with a 15s timeout.
	HTTPClient *http.Client
	Logger     logging.Logger
}

// WithSandbox binds shell and file tools to p.
func WithSandbox(p sandbox.Provider) func(o *Options) {
	return func(o *Options) { o.Sandbox = p }
}

// WithHTTPClient overrides the web_fetch client.
func WithHTTPClient(c *http.Client) func(o *Options) {
	return func(o *Options) { o.HTTPClient = c }
}

func newOptions(optFns []func(o *Options)) Options {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	opts.Logger = logging.Ensure(opts.Logger)
	return opts
}

func (o Options) backend() backend {
	if o.Sandbox != nil {
		return &sandboxBackend{p: o.Sandbox}
	}
	return hostBackend{}
}

var constructors = map[string]func(o Options) *tool.Definition{
	NameShell:         newShell,
	NameReadFile:      newReadFile,
	NameWriteFile:     newWriteFile,
	NameEditFile:      newEditFile,
	NameListDirectory: newListDirectory,
	NameWebFetch:      newWebFetch,
}

// Names returns all built-in tool names, sorted.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for n := range constructors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New returns the built-in tool called name.
func New(name string, optFns ...func(o *Options)) (*tool.Definition, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return ctor(newOptions(optFns)), nil
}

// All returns every built-in tool in Names order.
func All(optFns ...func(o *Options)) []*tool.Definition {
	opts := newOptions(optFns)
	out := make([]*tool.Definition, 0, len(constructors))
	for _, n := range Names() {
		out = append(out, constructors[n](opts))
	}
	return out
}

// FileTools returns read_file, write_file, edit_file and list_directory.
func FileTools(optFns ...func(o *Options)) []*tool.Definition {
	opts := newOptions(optFns)
	return []*tool.Definition{newReadFile(opts), newWriteFile(opts), newEditFile(opts), newListDirectory(opts)}
}

// Shell returns the execute_shell tool.
func Shell(optFns ...func(o *Options)) *tool.Definition { return newShell(newOptions(optFns)) }

// WebFetch returns the web_fetch tool.
func WebFetch(optFns ...func(o *Options)) *tool.Definition { return newWebFetch(newOptions(optFns)) }
