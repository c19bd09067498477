package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"autoblogger/internal/app"
)

// NewSettingsCommand creates the settings command group.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and change pipeline settings",
	}
	cmd.AddCommand(newSettingsShowCommand(rootOpts))
	cmd.AddCommand(newSettingsSetCommand(rootOpts))
	return cmd
}

func newSettingsShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the pipeline and eval settings",
		Args:  cobra.NoArgs,
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
			es, err := a.Settings.ReadEval()
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"pipeline": ps,
					"eval":     es,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pipeline: enabled=%v maxLoops=%d minScore=%d\n", ps.Enabled, ps.MaxLoops, ps.MinScore)
			fmt.Fprintf(out, "eval:     enabled=%v weights={structure:%d specificity:%d humanizer:%d medicalLegal:%d seo:%d}\n",
				es.Enabled, es.Weights.Structure, es.Weights.Specificity, es.Weights.Humanizer,
				es.Weights.MedicalLegal, es.Weights.SEO)
			return nil
		},
	}
}

func newSettingsSetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one pipeline setting (enabled, maxLoops, minScore)",
		Args:  cobra.ExactArgs(2),
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

			key, value := args[0], args[1]
			switch key {
			case "enabled":
				b, err := strconv.ParseBool(value)
				if err != nil {
					return fmt.Errorf("enabled must be a boolean, got %q", value)
				}
				ps.Enabled = b
			case "maxLoops":
				n, err := strconv.Atoi(value)
				if err != nil {
					return fmt.Errorf("maxLoops must be an integer, got %q", value)
				}
				ps.MaxLoops = n
			case "minScore":
				n, err := strconv.Atoi(value)
				if err != nil {
					return fmt.Errorf("minScore must be an integer, got %q", value)
				}
				ps.MinScore = n
			default:
				return fmt.Errorf("unknown setting %q", key)
			}

			if err := a.Settings.WritePipeline(ps); err != nil {
				return err
			}
			// Read back so clamping is visible.
			ps, err = a.Settings.ReadPipeline()
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return printJSON(cmd.OutOrStdout(), ps)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pipeline: enabled=%v maxLoops=%d minScore=%d\n", ps.Enabled, ps.MaxLoops, ps.MinScore)
			return nil
		},
	}
}
