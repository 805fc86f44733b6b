package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/construction-dashboard/internal/backend"
	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/construction"
	"github.com/frahmantamala/construction-dashboard/internal/session"
	"github.com/spf13/cobra"
)

var (
	projectSkip      int
	projectLimit     int
	projectCompany   int64
	projectEngineers []int64
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage construction projects",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the projects visible to you",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(cmd.Context(), func(ctx context.Context, deps *Dependencies, _ session.Snapshot) error {
			projects, err := deps.Backend.ListMyProjects(ctx, projectSkip, projectLimit)
			if err != nil {
				return backendFailure(err, "Failed to load projects")
			}
			return printJSON(cmd.OutOrStdout(), projects)
		})
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(ctx context.Context, deps *Dependencies, _ session.Snapshot) error {
			project, err := deps.Backend.GetMyProject(ctx, id)
			if err != nil {
				return backendFailure(err, "Failed to load project")
			}
			return printJSON(cmd.OutOrStdout(), project)
		})
	},
}

var projectCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(ctx context.Context, deps *Dependencies, snap session.Snapshot) error {
			companyID := projectCompany
			if companyID == 0 && snap.User.HasCompany() {
				companyID = *snap.User.CompanyID
			}
			req := construction.CreateProjectRequest{Name: args[0], CompanyID: companyID, EngineerIDs: projectEngineers}
			if req.EngineerIDs == nil {
				req.EngineerIDs = []int64{}
			}
			if err := req.Validate(); err != nil {
				return backendFailure(err, "Invalid project")
			}
			project, err := deps.Backend.CreateProject(ctx, &req)
			if err != nil {
				return backendFailure(err, "Failed to create project")
			}
			return printJSON(cmd.OutOrStdout(), project)
		})
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(ctx context.Context, deps *Dependencies, _ session.Snapshot) error {
			if err := deps.Backend.DeleteProject(ctx, id); err != nil {
				return backendFailure(err, "Failed to delete project")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Project %d deleted\n", id)
			return nil
		})
	},
}

// engineersCommand builds add-engineers and remove-engineers, which differ
// only in the backend call.
func engineersCommand(use, short, fallback string, call func(*Dependencies) func(context.Context, int64, *construction.EngineersRequest) (*backend.Ack, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <project-id> <engineer-id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withSession(cmd.Context(), func(ctx context.Context, deps *Dependencies, _ session.Snapshot) error {
				ack, err := call(deps)(ctx, ids[0], &construction.EngineersRequest{EngineerIDs: ids[1:]})
				if err != nil {
					return backendFailure(err, fallback)
				}
				return printJSON(cmd.OutOrStdout(), ack)
			})
		},
	}
}

var projectAddEngineersCmd = engineersCommand("add-engineers", "Add engineers to a project", "Failed to add engineers",
	func(d *Dependencies) func(context.Context, int64, *construction.EngineersRequest) (*backend.Ack, error) {
		return d.Backend.AddProjectEngineers
	})

var projectRemoveEngineersCmd = engineersCommand("remove-engineers", "Remove engineers from a project", "Failed to remove engineers",
	func(d *Dependencies) func(context.Context, int64, *construction.EngineersRequest) (*backend.Ack, error) {
		return d.Backend.RemoveProjectEngineers
	})

var projectAssignManagerCmd = &cobra.Command{
	Use:   "assign-manager <project-id> <manager-id>",
	Short: "Assign the project manager",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(ctx context.Context, deps *Dependencies, _ session.Snapshot) error {
			ack, err := deps.Backend.AssignProjectManager(ctx, ids[0], &construction.AssignManagerRequest{ManagerID: ids[1]})
			if err != nil {
				return backendFailure(err, "Failed to assign manager")
			}
			return printJSON(cmd.OutOrStdout(), ack)
		})
	},
}

var projectRemoveManagerCmd = &cobra.Command{
	Use:   "remove-manager <project-id>",
	Short: "Unassign the project manager",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(ctx context.Context, deps *Dependencies, _ session.Snapshot) error {
			ack, err := deps.Backend.RemoveProjectManager(ctx, id)
			if err != nil {
				return backendFailure(err, "Failed to remove manager")
			}
			return printJSON(cmd.OutOrStdout(), ack)
		})
	},
}

func init() {
	projectListCmd.Flags().IntVar(&projectSkip, "skip", 0, "number of projects to skip")
	projectListCmd.Flags().IntVar(&projectLimit, "limit", 0, "page size (backend.page_limit when 0)")
	projectCreateCmd.Flags().Int64Var(&projectCompany, "company-id", 0, "owning company (your company when 0)")
	projectCreateCmd.Flags().Int64SliceVar(&projectEngineers, "engineer", nil, "engineer ids to assign")

	projectCmd.AddCommand(projectListCmd, projectShowCmd, projectCreateCmd, projectDeleteCmd,
		projectAddEngineersCmd, projectRemoveEngineersCmd, projectAssignManagerCmd, projectRemoveManagerCmd)
	rootCmd.AddCommand(projectCmd)
}
