package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"autoblogger/internal/app"
	"autoblogger/internal/model"
)

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var seedType string

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a new artifact at the topic stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			art, err := a.Store.Create(cmd.Context(), args[0], seedType)
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), art)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s, seed=%s)\n", art.ID, art.Stage, art.SeedType)
			return nil
		},
	}

	cmd.Flags().StringVar(&seedType, "seed", model.SeedTennis,
		"seed category (tennis|weights|cases|custom); unknown values become custom")
	return cmd
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List artifacts, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			arts, err := a.Store.List(cmd.Context())
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), arts)
			}
			for _, art := range arts {
				score := "-"
				if art.EvalScore != nil {
					score = fmt.Sprint(*art.EvalScore)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-10s  loops=%d  score=%s  %s\n",
					art.ID, art.Stage, art.LoopCount, score, art.Title)
			}
			return nil
		},
	}
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	var withBody bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one artifact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			art, err := a.Store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), art)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:        %s\n", art.ID)
			fmt.Fprintf(out, "title:     %s\n", art.Title)
			fmt.Fprintf(out, "seed:      %s\n", art.SeedType)
			fmt.Fprintf(out, "stage:     %s\n", art.Stage)
			fmt.Fprintf(out, "running:   %v\n", art.Running)
			fmt.Fprintf(out, "loops:     %d\n", art.LoopCount)
			if art.EvalScore != nil {
				fmt.Fprintf(out, "eval:      %d\n", *art.EvalScore)
			}
			if len(art.StageScores) > 0 {
				var parts []string
				for _, stg := range model.Stages {
					if sc, ok := art.StageScores[stg]; ok {
						parts = append(parts, fmt.Sprintf("%s=%d", stg, sc))
					}
				}
				fmt.Fprintf(out, "gates:     %s\n", strings.Join(parts, " "))
			}
			if len(art.EvalFixes) > 0 {
				fmt.Fprintf(out, "fixes:     %s\n", strings.Join(art.EvalFixes, "; "))
			}
			if withBody {
				fmt.Fprintf(out, "\n%s\n", art.BodyMarkdown)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withBody, "body", false, "print the current stage markdown")
	return cmd
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <id>",
		Short: "Run the pipeline for one artifact",
		Long: `Run the full stage pipeline for the artifact and wait for it to
finish. A gate failure leaves the artifact at the failed stage; inspect it
with "autoblog show".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			ps, err := a.Settings.ReadPipeline()
			if err != nil {
				return err
			}
			if !ps.Enabled {
				return fmt.Errorf("pipeline is disabled in settings")
			}

			if err := a.Pipeline.Run(cmd.Context(), args[0]); err != nil {
				return err
			}

			art, err := a.Store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), art)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "finished at stage %s (loops=%d)\n", art.Stage, art.LoopCount)
			return nil
		},
	}
}
