package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
)

type InstancesCmd struct {
	Add  InstancesAddCmd  `cmd:"" help:"Register an execution node."`
	List InstancesListCmd `cmd:"" help:"List execution nodes."`
}

type InstancesAddCmd struct {
	Name        string `arg:"" help:"Instance name."`
	Description string `help:"Free text description."`
}

func (a *InstancesAddCmd) Run(g *Globals) error {
	ctx := context.Background()
	e, err := setup(ctx, g, false)
	if err != nil {
		return err
	}
	defer e.Close()

	inst, err := e.store.CreateInstance(ctx, a.Name, a.Description)
	if err != nil {
		return err
	}
	fmt.Fprintf(g.stdout(), "added instance %q (id %d)\n", inst.Name, inst.ID)
	return nil
}

type InstancesListCmd struct{}

func (l *InstancesListCmd) Run(g *Globals) error {
	ctx := context.Background()
	e, err := setup(ctx, g, false)
	if err != nil {
		return err
	}
	defer e.Close()

	instances, err := e.store.ListInstances(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(g.stdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCREATED\tDESCRIPTION")
	for _, inst := range instances {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", inst.ID, inst.Name, inst.Created.Format("2006-01-02 15:04"), inst.Description)
	}
	return tw.Flush()
}
