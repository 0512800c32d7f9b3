package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sandrolain/gocondition/pkg/editor"
)

func newMembersCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "members [type]",
		Short: "List the members a condition can use on a type",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := env.session()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, t := range s.reg.Types() {
					fmt.Fprintln(out, t.Name())
				}
				return nil
			}

			t, ok := s.reg.Lookup(args[0])
			if !ok {
				return fmt.Errorf("unknown type %q", args[0])
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, m := range editor.PublicMembers(t) {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.Kind, m.Signature(), m.DeclaredBy.Name(), m.Doc)
			}
			return tw.Flush()
		},
	}
}
