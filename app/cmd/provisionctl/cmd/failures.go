package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sua-a1/cram-app-sub001/app/domain"
)

type connectFunc func(cmd *cobra.Command) (Reconciler, func(), error)

func newFailuresCmd(connect connectFunc) *cobra.Command {
	failures := &cobra.Command{
		Use:   "failures",
		Short: "Manage partial provision failures",
	}
	failures.AddCommand(
		newListCmd(connect),
		newShowCmd(connect),
		newRetryCmd(connect),
		newResolveCmd(connect),
	)
	return failures
}

func newListCmd(connect connectFunc) *cobra.Command {
	var (
		all   bool
		limit int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List provision failures, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, release, err := connect(cmd)
			if err != nil {
				return err
			}
			defer release()

			items, err := r.List(cmd.Context(), !all, limit)
			if err != nil {
				return fmt.Errorf("failed to list failures: %w", err)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no provision failures")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tFLOW\tSTEP\tEMAIL\tCREATED\tRESOLVED")
			for _, f := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					f.ID, f.Flow, f.Step, f.Email, f.CreatedAt.UTC().Format(time.RFC3339), resolvedAt(f))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Include resolved failures")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of rows")
	return cmd
}

func newShowCmd(connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one provision failure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			r, release, err := connect(cmd)
			if err != nil {
				return err
			}
			defer release()

			f, err := r.Show(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to load failure %s: %w", id, err)
			}
			printFailure(cmd.OutOrStdout(), f)
			return nil
		},
	}
}

func newRetryCmd(connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <id>",
		Short: "Delete the identity and tenant left behind, then resolve",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			r, release, err := connect(cmd)
			if err != nil {
				return err
			}
			defer release()

			f, err := r.Retry(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("retry of %s failed: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "failure %s resolved at %s\n", f.ID, resolvedAt(f))
			return nil
		},
	}
}

func newResolveCmd(connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <id>",
		Short: "Close a failure without touching the records it names",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			r, release, err := connect(cmd)
			if err != nil {
				return err
			}
			defer release()

			if err := r.Resolve(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to resolve %s: %w", id, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "failure %s resolved\n", id)
			return nil
		},
	}
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid failure id %q: %w", raw, err)
	}
	return id, nil
}

func resolvedAt(f *domain.ProvisionFailure) string {
	if !f.Resolved() {
		return "-"
	}
	return f.ResolvedAt.UTC().Format(time.RFC3339)
}

func printFailure(out io.Writer, f *domain.ProvisionFailure) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", f.ID)
	fmt.Fprintf(w, "Flow:\t%s\n", f.Flow)
	fmt.Fprintf(w, "Step:\t%s\n", f.Step)
	fmt.Fprintf(w, "Email:\t%s\n", f.Email)
	fmt.Fprintf(w, "Identity:\t%s\n", optionalID(f.IdentityID))
	fmt.Fprintf(w, "Tenant:\t%s\n", optionalID(f.TenantID))
	fmt.Fprintf(w, "Error:\t%s\n", f.Error)
	fmt.Fprintf(w, "Created:\t%s\n", f.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "Resolved:\t%s\n", resolvedAt(f))
	_ = w.Flush()
}

func optionalID(id *uuid.UUID) string {
	if id == nil {
		return "-"
	}
	return id.String()
}
