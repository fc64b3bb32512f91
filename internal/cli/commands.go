package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/iac-studio/rolecfg/internal/repository"
	"github.com/iac-studio/rolecfg/internal/services"
	"github.com/iac-studio/rolecfg/pkg/utils"
)

const (
	FlagStage        = "stage"
	FlagProject      = "project"
	FlagDeployGroup  = "deploy-group"
	FlagGitRef       = "git-ref"
	FlagGitSHA       = "git-sha"
	FlagVerification = "verification"
	FlagEmail        = "email"
)

// ErrSeedIncomplete is returned when some pairs of a seed could not be created.
var ErrSeedIncomplete = errors.New("seed incomplete")

func newExampleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "example",
		Short: "Create the example project and its configs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, done, err := opts.deps(cmd)
			if err != nil {
				return err
			}
			defer done()

			data, err := deps.Example.Load(cmd.Context())
			if err != nil {
				return err
			}
			if opts.output != outputTable {
				return encode(cmd.OutOrStdout(), opts.output, data)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "project %s (%s)\nstage %s (%s)\n",
				data.Project.Name, data.Project.ID, data.Stage.Name, data.Stage.ID)
			rows := make([]table.Row, 0, len(data.Configs))
			for i := range data.Configs {
				cfg := data.Configs[i]
				cfg.Project = &data.Project
				cfg.DeployGroup = &data.DeployGroup
				cfg.Role = &data.Roles[i]
				rows = append(rows, configRow(&cfg))
			}
			renderTable(cmd.OutOrStdout(), configHeader, rows)
			return nil
		},
	}
}

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var stageID uuid.UUID
	cmd := &cobra.Command{
		Use:   "seed --stage <id>",
		Short: "Create missing configs for every deploy group and role of a stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, done, err := opts.deps(cmd)
			if err != nil {
				return err
			}
			defer done()

			res, err := deps.Seeder.Seed(cmd.Context(), stageID)
			if err != nil {
				return err
			}

			if opts.output != outputTable {
				if err := encode(cmd.OutOrStdout(), opts.output, seedView(res)); err != nil {
					return err
				}
			} else {
				rows := make([]table.Row, 0, len(res.Items))
				for _, it := range res.Items {
					status := "created"
					if !it.Persisted() {
						status = "failed"
					}
					rows = append(rows, table.Row{it.RoleName, it.DeployGroupName, status})
				}
				renderTable(cmd.OutOrStdout(), table.Row{"Role", "Deploy Group", "Status"}, rows)
			}

			if !res.Seeded() {
				fmt.Fprintln(cmd.ErrOrStderr(), strings.Join(res.Messages(deps.SeedFailureLines), "\n"))
				return ErrSeedIncomplete
			}
			return nil
		},
	}
	uuidVar(cmd.Flags(), &stageID, FlagStage, "stage to seed")
	_ = cmd.MarkFlagRequired(FlagStage)
	return cmd
}

type seedItemView struct {
	Role            string `json:"role"`
	DeployGroup     string `json:"deploy_group"`
	DeployGroupRole string `json:"deploy_group_role_id,omitempty"`
	Error           string `json:"error,omitempty"`
}

func seedView(res *services.SeedResult) []seedItemView {
	out := make([]seedItemView, 0, len(res.Items))
	for _, it := range res.Items {
		v := seedItemView{Role: it.RoleName, DeployGroup: it.DeployGroupName}
		if it.Err != nil {
			v.Error = it.Err.Error()
		} else if it.Config != nil {
			v.DeployGroupRole = it.Config.ID.String()
		}
		out = append(out, v)
	}
	return out
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var projectID, groupID uuid.UUID
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List configs ordered by project, role and deploy group",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, done, err := opts.deps(cmd)
			if err != nil {
				return err
			}
			defer done()

			items, err := deps.Configs.List(cmd.Context(), repository.Filter{
				ProjectID:     optionalID(cmd.Flags(), FlagProject, projectID),
				DeployGroupID: optionalID(cmd.Flags(), FlagDeployGroup, groupID),
			})
			if err != nil {
				return err
			}
			if opts.output != outputTable {
				return encode(cmd.OutOrStdout(), opts.output, items)
			}

			rows := make([]table.Row, 0, len(items))
			for i := range items {
				rows = append(rows, configRow(&items[i]))
			}
			renderTable(cmd.OutOrStdout(), configHeader, rows)
			return nil
		},
	}
	uuidVar(cmd.Flags(), &projectID, FlagProject, "only configs of this project")
	uuidVar(cmd.Flags(), &groupID, FlagDeployGroup, "only configs of this deploy group")
	return cmd
}

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var req services.RenderRequest
	cmd := &cobra.Command{
		Use:   "render <config-id>",
		Short: "Print the Kubernetes documents a config would deploy",
		Long: `Print the Kubernetes documents a config would deploy at a revision.

A --git-sha is used as is. Otherwise --git-ref, or the default branch when it
is empty, is resolved against the project's repository.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("%q is not a valid id", args[0])
			}

			deps, done, err := opts.deps(cmd)
			if err != nil {
				return err
			}
			defer done()

			rendered, err := deps.Renderer.Render(cmd.Context(), id, req)
			if err != nil {
				return err
			}
			if opts.output == outputJSON {
				return encode(cmd.OutOrStdout(), opts.output, rendered)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "# revision %s (%s)\n", rendered.Revision.Ref, utils.ShortSHA(rendered.Revision.SHA, 12))
			b, err := rendered.Template.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
	cmd.Flags().StringVar(&req.GitRef, FlagGitRef, "", "branch or tag to render")
	cmd.Flags().StringVar(&req.GitSHA, FlagGitSHA, "", "commit to render")
	cmd.Flags().BoolVar(&req.Verification, FlagVerification, false, "render the full verification bundle")
	return cmd
}

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "token --email <address>",
		Short: "Issue an API token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, done, err := opts.deps(cmd)
			if err != nil {
				return err
			}
			defer done()

			token, _, err := deps.Auth.IssueToken(cmd.Context(), email)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, FlagEmail, "", "email of an existing user")
	_ = cmd.MarkFlagRequired(FlagEmail)
	return cmd
}
