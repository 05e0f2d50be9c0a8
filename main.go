package main

import (
	"github.com/alecthomas/kong"
	"github.com/arnavsurve/scrapebot/cmd/cli"

	// Registers the behavior of every step kind.
	_ "github.com/arnavsurve/scrapebot/pkg/steprunner/handlers"
)

var CLI struct {
	cli.Globals

	Sweep     cli.SweepCmd     `cmd:"" help:"Run every due recipe assigned to this instance once."`
	Run       cli.RunCmd       `cmd:"" help:"Run one recipe now, regardless of its interval."`
	Import    cli.ImportCmd    `cmd:"" help:"Validate a recipe file and store it."`
	Lint      cli.LintCmd      `cmd:"" help:"Validate a recipe file."`
	Show      cli.ShowCmd      `cmd:"" help:"Print the status, log and data of a run."`
	Instances cli.InstancesCmd `cmd:"" help:"Manage execution nodes."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("scrapebot"),
		kong.Description("Runs browser recipes on a schedule and records what they find."),
		kong.UsageOnError(),
		kong.Bind(&CLI.Globals),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
