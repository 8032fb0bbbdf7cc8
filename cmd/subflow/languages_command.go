package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"subflow/internal/language"
	"subflow/internal/subtitle"
)

func newLanguagesCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List the languages the subtitle service offers",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.remoteClient()
			if err != nil {
				return err
			}
			catalog, err := client.Languages(cmd.Context())
			if err != nil {
				return fmt.Errorf("load languages: %w", err)
			}
			if jsonOutput {
				return writeJSON(cmd, struct {
					Source []language.Option `json:"source"`
					Target []language.Option `json:"target"`
				}{catalog.SourceOptions(), catalog.TargetOptions()})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Transcription (source) languages:")
			fmt.Fprintln(out, renderOptions(catalog.SourceOptions()))
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Translation (target) languages:")
			fmt.Fprintln(out, renderOptions(catalog.TargetOptions()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the catalog as JSON")
	return cmd
}

func renderOptions(options []language.Option) string {
	if len(options) == 0 {
		return "  (none advertised)"
	}
	rows := make([][]string, 0, len(options))
	for _, opt := range options {
		rows = append(rows, []string{opt.Code, opt.Name})
	}
	return renderTable([]column{{Header: "Code"}, {Header: "Name"}}, rows)
}

func newFormatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "formats",
		Short: "List the configured subtitle formats",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			formats := slices.Clone(cfg.Pipeline.SubtitleFormats)
			if jsonOutput {
				return writeJSON(cmd, struct {
					Default string   `json:"default"`
					Formats []string `json:"formats"`
				}{cfg.Pipeline.SubtitleFormat, formats})
			}
			rows := make([][]string, 0, len(formats))
			for _, f := range formats {
				rows = append(rows, []string{f, subtitle.ParseFormat(f).Extension(), yesNo(f == cfg.Pipeline.SubtitleFormat)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]column{
				{Header: "Format"},
				{Header: "Extension"},
				{Header: "Default"},
			}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the formats as JSON")
	return cmd
}
