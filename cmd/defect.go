package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/construction-dashboard/internal/core/datamodel/construction"
	"github.com/frahmantamala/construction-dashboard/internal/session"
	"github.com/spf13/cobra"
)

var (
	defectSkip  int
	defectLimit int
)

var defectCmd = &cobra.Command{
	Use:   "defect",
	Short: "Report and assign defects",
}

var defectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the defects visible to you",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withSession(cmd.Context(), func(ctx context.Context, deps *Dependencies, _ session.Snapshot) error {
			defects, err := deps.Backend.ListMyDefects(ctx, defectSkip, defectLimit)
			if err != nil {
				return backendFailure(err, "Failed to load defects")
			}
			return printJSON(cmd.OutOrStdout(), defects)
		})
	},
}

var defectShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a defect",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(ctx context.Context, deps *Dependencies, _ session.Snapshot) error {
			defect, err := deps.Backend.GetMyDefect(ctx, id)
			if err != nil {
				return backendFailure(err, "Failed to load defect")
			}
			return printJSON(cmd.OutOrStdout(), defect)
		})
	},
}

var defectCreateCmd = &cobra.Command{
	Use:   "create <project-id> <name>",
	Short: "Report a defect on a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(ctx context.Context, deps *Dependencies, _ session.Snapshot) error {
			req := construction.CreateDefectRequest{Name: args[1], ProjectID: projectID}
			if err := req.Validate(); err != nil {
				return backendFailure(err, "Invalid defect")
			}
			defect, err := deps.Backend.CreateDefect(ctx, &req)
			if err != nil {
				return backendFailure(err, "Failed to create defect")
			}
			return printJSON(cmd.OutOrStdout(), defect)
		})
	},
}

var defectDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a defect",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(ctx context.Context, deps *Dependencies, _ session.Snapshot) error {
			if err := deps.Backend.DeleteDefect(ctx, id); err != nil {
				return backendFailure(err, "Failed to delete defect")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Defect %d deleted\n", id)
			return nil
		})
	},
}

var defectAssignEngineerCmd = &cobra.Command{
	Use:   "assign-engineer <defect-id> <engineer-id>",
	Short: "Assign the engineer responsible for a defect",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(ctx context.Context, deps *Dependencies, _ session.Snapshot) error {
			ack, err := deps.Backend.AssignDefectEngineer(ctx, ids[0], &construction.AssignEngineerRequest{EngineerID: ids[1]})
			if err != nil {
				return backendFailure(err, "Failed to assign engineer")
			}
			return printJSON(cmd.OutOrStdout(), ack)
		})
	},
}

var defectRemoveEngineerCmd = &cobra.Command{
	Use:   "remove-engineer <defect-id>",
	Short: "Unassign the engineer of a defect",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withSession(cmd.Context(), func(ctx context.Context, deps *Dependencies, _ session.Snapshot) error {
			ack, err := deps.Backend.RemoveDefectEngineer(ctx, id)
			if err != nil {
				return backendFailure(err, "Failed to remove engineer")
			}
			return printJSON(cmd.OutOrStdout(), ack)
		})
	},
}

func init() {
	defectListCmd.Flags().IntVar(&defectSkip, "skip", 0, "number of defects to skip")
	defectListCmd.Flags().IntVar(&defectLimit, "limit", 0, "page size (backend.page_limit when 0)")

	defectCmd.AddCommand(defectListCmd, defectShowCmd, defectCreateCmd, defectDeleteCmd,
		defectAssignEngineerCmd, defectRemoveEngineerCmd)
	rootCmd.AddCommand(defectCmd)
}
