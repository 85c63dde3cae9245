package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pollkit/internal/config"
	"pollkit/internal/generator"
	"pollkit/internal/sessionfile"
	"pollkit/internal/store"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var templateFlag string
	var titleFlag string

	cmd := &cobra.Command{
		Use:   "generate <session-file>",
		Short: "Synthesize a polling package from a session description",
		Long: "Reads a TOML session description (title, questions, participants), " +
			"injects one polling slide per question into the template, and bundles " +
			"the package with the roster document into a distribution archive.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := sessionfile.Load(args[0])
			if err != nil {
				return err
			}
			if strings.TrimSpace(templateFlag) != "" {
				doc.TemplatePath = strings.TrimSpace(templateFlag)
			}
			if strings.TrimSpace(titleFlag) != "" {
				doc.Title = strings.TrimSpace(titleFlag)
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				gen := generator.New(cfg, st, nil, logger)
				artifact, err := gen.Generate(cmd.Context(), generator.Options{
					Title:        doc.Title,
					TemplatePath: doc.TemplatePath,
					Questions:    doc.Questions,
					Roster:       doc.Roster,
				})
				if err != nil {
					return err
				}
				printArtifact(cmd, artifact)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&templateFlag, "template", "t", "", "Template package path (overrides the session file)")
	cmd.Flags().StringVar(&titleFlag, "title", "", "Session title (overrides the session file)")
	return cmd
}

func printArtifact(cmd *cobra.Command, artifact *generator.Artifact) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session %d generated\n", artifact.SessionID)
	fmt.Fprintf(out, "Archive: %s\n", artifact.ArchivePath)
	fmt.Fprintf(out, "Slides added: %d (tag parts: %d)\n", artifact.SlideCount, artifact.TagCount)

	rows := make([][]string, 0, len(artifact.Mappings))
	for _, m := range artifact.Mappings {
		rows = append(rows, []string{
			strconv.Itoa(m.Ordinal),
			strconv.FormatInt(m.QuestionID, 10),
			m.SlideGUID,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Order", "Question", "Slide ID"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft},
	))

	colorize := shouldColorize(out)
	for _, failure := range artifact.ImageFailures {
		fmt.Fprintln(out, renderStatusLine(
			"image fetch",
			statusWarn,
			fmt.Sprintf("%s: %v (slide emitted without it)", failure.URL, failure.Err),
			colorize,
		))
	}
}
