package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/construction"
	"github.com/frahmantamala/construction-dashboard/internal/session"
	"github.com/spf13/cobra"
)

var companyCmd = &cobra.Command{
	Use:   "company",
	Short: "Manage companies (admin) and show your own",
}

var companyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every company",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(cmd.Context(), func(ctx context.Context, deps *Dependencies, _ session.Snapshot) error {
			companies, err := deps.Backend.ListCompanies(ctx)
			if err != nil {
				return backendFailure(err, "Failed to load companies")
			}
			return printJSON(cmd.OutOrStdout(), companies)
		})
	},
}

var companyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a company; your own when no id is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(ctx context.Context, deps *Dependencies, snap session.Snapshot) error {
			var id int64
			if len(args) == 1 {
				parsed, err := parseID(args[0])
				if err != nil {
					return err
				}
				id = parsed
			} else if snap.User.HasCompany() {
				id = *snap.User.CompanyID
			} else {
				return fmt.Errorf("you are not assigned to a company")
			}

			company, err := deps.Backend.GetCompany(ctx, id)
			if err != nil {
				return backendFailure(err, "Failed to load company")
			}
			return printJSON(cmd.OutOrStdout(), company)
		})
	},
}

var companyCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(ctx context.Context, deps *Dependencies, _ session.Snapshot) error {
			req := construction.CreateCompanyRequest{Name: args[0]}
			if err := req.Validate(); err != nil {
				return backendFailure(err, "Invalid company")
			}
			company, err := deps.Backend.CreateCompany(ctx, &req)
			if err != nil {
				return backendFailure(err, "Failed to create company")
			}
			return printJSON(cmd.OutOrStdout(), company)
		})
	},
}

var companyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(ctx context.Context, deps *Dependencies, _ session.Snapshot) error {
			if err := deps.Backend.DeleteCompany(ctx, id); err != nil {
				return backendFailure(err, "Failed to delete company")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Company %d deleted\n", id)
			return nil
		})
	},
}

var companyAddUserCmd = &cobra.Command{
	Use:   "add-user <company-id> <user-id>",
	Short: "Add a user to a company",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(ctx context.Context, deps *Dependencies, _ session.Snapshot) error {
			ack, err := deps.Backend.AddUserToCompany(ctx, ids[0], &construction.AddUserRequest{UserID: ids[1]})
			if err != nil {
				return backendFailure(err, "Failed to add user to company")
			}
			return printJSON(cmd.OutOrStdout(), ack)
		})
	},
}

var companyRemoveUserCmd = &cobra.Command{
	Use:   "remove-user <company-id> <user-id>",
	Short: "Remove a user from a company",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(ctx context.Context, deps *Dependencies, _ session.Snapshot) error {
			ack, err := deps.Backend.RemoveUserFromCompany(ctx, ids[0], ids[1])
			if err != nil {
				return backendFailure(err, "Failed to remove user from company")
			}
			return printJSON(cmd.OutOrStdout(), ack)
		})
	},
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%q is not a valid id", raw)
	}
	return id, nil
}

func parseIDs(raw []string) ([]int64, error) {
	ids := make([]int64, 0, len(raw))
	for _, r := range raw {
		id, err := parseID(r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func init() {
	companyCmd.AddCommand(companyListCmd, companyShowCmd, companyCreateCmd, companyDeleteCmd, companyAddUserCmd, companyRemoveUserCmd)
	rootCmd.AddCommand(companyCmd)
}
