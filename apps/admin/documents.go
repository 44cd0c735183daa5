package main

import (
	"context"
	"fmt"
	"text/tabwriter"
)

// overdue lists the pending document requests whose deadline has passed.
func (cli *commandLine) overdue() error {
	reqs, err := cli.svc.OverdueDocuments(context.Background())
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		fmt.Fprintln(cli.out, "no overdue document request")
		return nil
	}

	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROPOSITION\tSLOT\tBODY\tDEADLINE\tREQUESTED BY")
	for _, r := range reqs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.PropositionID, r.Slot, r.Body, r.Deadline.Format("2006-01-02"), r.RequestedBy)
	}
	return w.Flush()
}
