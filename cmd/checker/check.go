package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/federation-tools/membership-checker/internal/adapters/csvimport"
	"github.com/federation-tools/membership-checker/internal/app/memberships"
	"github.com/federation-tools/membership-checker/internal/domain"
)

func checkCmd(a *app) *cobra.Command {
	var membersFile string

	cmd := &cobra.Command{
		Use:     "check",
		Short:   "Check the participants of a CSV file (num;name;firstname or num;identity)",
		Args:    cobra.NoArgs,
		PreRunE: a.preRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(membersFile)
			if err != nil {
				return fmt.Errorf("failed to read members file: %w", err)
			}
			members, wrongLines := csvimport.ParseCsvMembers(string(raw))
			for _, l := range wrongLines {
				a.logger.Warn("ignored malformed line", zap.String("line", l))
			}

			checked, err := a.svc.CheckCsvMembers(cmd.Context(), members)
			if err != nil {
				return err
			}
			return printChecked(cmd.OutOrStdout(), checked)
		},
	}

	cmd.Flags().StringVar(&membersFile, "members", "", "Participants to check (CSV)")
	_ = cmd.MarkFlagRequired("members")
	return cmd
}

func printChecked(out io.Writer, checked []memberships.CheckedMember[domain.CsvMember]) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tPARTICIPANT\tRESULT\tSTATUS\tMEMBERSHIP")
	for _, c := range checked {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			c.Candidate.MembershipNumber,
			participantName(c.Candidate),
			c.Result.Kind,
			c.Status,
			describeMembership(c.Result.Membership),
		)
	}
	return tw.Flush()
}

func participantName(m domain.CsvMember) string {
	if m.IdentityText != nil {
		return *m.IdentityText
	}
	var last, first string
	if m.Name != nil {
		last = *m.Name
	}
	if m.Firstname != nil {
		first = *m.Firstname
	}
	return last + " " + first
}

func describeMembership(m *domain.Membership) string {
	if m == nil {
		return "-"
	}
	return fmt.Sprintf("%s %s %s (%s, until %s)",
		m.MembershipNumber, m.LastName, m.FirstName, m.Club, m.EndDate.Format("02-01-2006"))
}
