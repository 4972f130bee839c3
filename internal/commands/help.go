package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"taskman/internal/config"
	"taskman/internal/exitcode"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "taskman help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, app *App, args []string, out, errOut io.Writer) int {
	fmt.Fprintf(out, "Usage:\n  %s <command> [common flags] [args]\n\nCommands:\n", config.AppName)
	for _, cmd := range DefaultRegistry.All() {
		fmt.Fprintf(out, "  %-8s %-40s %s\n", cmd.Name(), cmd.Usage(), cmd.Synopsis())
	}
	fmt.Fprint(out, helpFooter)
	return exitcode.Success
}

const helpFooter = `
With no command, ls is run.
A <ref> is a task number as printed by ls, or a task ID.

Common flags:
  --config <dir>   Override config directory
  -q, --quiet      Suppress informational output
  --debug          Print debug logs to stderr

Environment:
  TASKMAN_ORIGIN       Backend base address (default http://localhost:80/api/v1/)
  TASKMAN_TIMEOUT      Request timeout (default 10s)
  TASKMAN_LOG_LEVEL    debug, info, warn or error (default warn)
`
