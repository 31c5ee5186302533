package configs

import (
	"strings"

	"github.com/ni/nilrt-snac/internal/relay"
)

// Console disables the serial console output on the target.
type Console struct {
	runner relay.Runner
}

// NewConsole builds the console module.
func NewConsole(runner relay.Runner) *Console {
	return &Console{runner: runner}
}

func (c *Console) Name() string { return "console" }

func (c *Console) Configure(args Args) error {
	return RunSteps(args, c.Name(), []Step{
		{
			Desc: "disable console output",
			Run: func() error {
				_, err := c.runner.Run("nirtcfg", "--set",
					"section=systemsettings,token=consoleout.enabled,value=False")
				return err
			},
			DryRunSafe: true,
		},
	})
}

func (c *Console) Verify(args Args) bool {
	v := newVerifier(c.Name())

	out, err := c.runner.Output("nirtcfg", "--get",
		"section=systemsettings,token=consoleout.enabled")
	v.check(err == nil && strings.TrimSpace(out) == "False",
		"FOUND: console access not disabled")

	return v.valid
}
