package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/federation-tools/membership-checker/internal/domain"
)

func lookupCmd(a *app) *cobra.Command {
	var number, lastName, firstName string

	cmd := &cobra.Command{
		Use:     "lookup",
		Short:   "Search memberships by number, last name or first name",
		Args:    cobra.NoArgs,
		PreRunE: a.preRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := domain.MemberToLookUp{
				MembershipNum: flagValue(cmd, "number", number),
				LastName:      flagValue(cmd, "last-name", lastName),
				FirstName:     flagValue(cmd, "first-name", firstName),
			}
			found, err := a.svc.LookUp(cmd.Context(), q)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Found %d memberships\n", len(found))
			for i := range found {
				fmt.Fprintf(out, "- %s\n", describeMembership(&found[i]))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&number, "number", "", "Membership number")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&firstName, "first-name", "", "First name")
	return cmd
}

// flagValue returns nil for a flag the user did not set.
func flagValue(cmd *cobra.Command, name, v string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}
