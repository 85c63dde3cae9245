package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pollkit/internal/config"
	"pollkit/internal/store"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect generated and imported sessions",
	}

	sessionCmd.AddCommand(newSessionListCommand(ctx))
	sessionCmd.AddCommand(newSessionShowCommand(ctx))
	sessionCmd.AddCommand(newSessionMappingsCommand(ctx))
	sessionCmd.AddCommand(newSessionResultsCommand(ctx))

	return sessionCmd
}

func newSessionListCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				sessions, err := st.ListSessions(cmd.Context())
				if err != nil {
					return err
				}
				if jsonFlag {
					return writeJSON(cmd, sessions)
				}
				if len(sessions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No sessions yet")
					return nil
				}
				rows := make([][]string, 0, len(sessions))
				for _, session := range sessions {
					rows = append(rows, []string{
						strconv.FormatInt(session.ID, 10),
						session.Title,
						string(session.Status),
						session.CreatedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Title", "Status", "Created"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newSessionShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one session in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSessionID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				session, err := st.GetSession(cmd.Context(), id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Session %d: %s\n", session.ID, session.Title)
				fmt.Fprintf(out, "  Status:   %s\n", session.Status)
				fmt.Fprintf(out, "  Template: %s\n", session.TemplatePath)
				if session.OutputPath != "" {
					fmt.Fprintf(out, "  Archive:  %s\n", session.OutputPath)
				}
				fmt.Fprintf(out, "  Created:  %s\n", session.CreatedAt.Local().Format(time.DateTime))

				questions, err := st.QuestionsBySession(cmd.Context(), session.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "\nQuestions (%d):\n", len(questions))
				for _, q := range questions {
					correct := "-"
					if q.Correct != nil {
						correct = q.Options[*q.Correct]
					}
					fmt.Fprintf(out, "  %d. %s (correct: %s)\n", q.ID, q.Prompt, correct)
				}

				roster, err := st.RosterBySession(cmd.Context(), session.ID)
				if err != nil {
					return err
				}
				absent, err := st.AbsentDevices(cmd.Context(), session.ID)
				if err != nil {
					return err
				}
				absentSet := make(map[string]bool, len(absent))
				for _, device := range absent {
					absentSet[device] = true
				}
				fmt.Fprintf(out, "\nParticipants (%d):\n", len(roster))
				rows := make([][]string, 0, len(roster))
				for _, entry := range roster {
					rows = append(rows, []string{
						entry.DeviceID,
						entry.DisplayName(),
						entry.Organization,
						yesNo(absentSet[entry.DeviceID]),
					})
				}
				if len(rows) > 0 {
					fmt.Fprintln(out, renderTable(
						[]string{"Device", "Name", "Organization", "Absent"},
						rows,
						[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
					))
				}

				reports, err := st.ImportReportsBySession(cmd.Context(), session.ID)
				if err != nil {
					return err
				}
				if len(reports) > 0 {
					fmt.Fprintf(out, "\nImports (%d):\n", len(reports))
					for _, report := range reports {
						fmt.Fprintf(out, "  %s: %d responses, %d duplicates, %d anomalies (%d resolved)\n",
							report.CreatedAt.Local().Format(time.DateTime),
							report.ResponseCount, report.DuplicateCount,
							report.AnomalyCount, report.ResolvedCount)
					}
				}
				return nil
			})
		},
	}
}

func newSessionMappingsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "mappings <id>",
		Short: "Show the question-to-slide mapping for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSessionID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				mappings, err := st.MappingsBySession(cmd.Context(), id)
				if err != nil {
					return err
				}
				if len(mappings) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Session has no mappings; generate it first")
					return nil
				}
				rows := make([][]string, 0, len(mappings))
				for _, m := range mappings {
					tag := m.Theme
					if m.BlockLetter != "" {
						tag = strings.TrimSpace(tag + " " + m.BlockLetter)
					}
					rows = append(rows, []string{
						strconv.Itoa(m.Ordinal),
						strconv.FormatInt(m.QuestionID, 10),
						m.SlideGUID,
						tag,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Order", "Question", "Slide ID", "Tag"},
					rows,
					[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newSessionResultsCommand(ctx *commandContext) *cobra.Command {
	var totalsFlag bool
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "results <id>",
		Short: "Show graded results for an imported session",
		Args:  cobra.ExactArgs(1),
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		id, err := parseSessionID(args[0])
		if err != nil {
			return err
		}
		return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
			out := cmd.OutOrStdout()
			if totalsFlag {
				totals, err := st.DeviceTotals(cmd.Context(), id)
				if err != nil {
					return err
				}
				if jsonFlag {
					return writeJSON(cmd, totals)
				}
				if len(totals) == 0 {
					fmt.Fprintln(out, "No results imported yet")
					return nil
				}
				devices := make([]string, 0, len(totals))
				for device := range totals {
					devices = append(devices, device)
				}
				sort.Slice(devices, func(i, j int) bool {
					if totals[devices[i]] != totals[devices[j]] {
						return totals[devices[i]] > totals[devices[j]]
					}
					return devices[i] < devices[j]
				})
				rows := make([][]string, 0, len(devices))
				for _, device := range devices {
					rows = append(rows, []string{device, strconv.Itoa(totals[device])})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Device", "Points"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			}

			results, err := st.ResultsBySession(cmd.Context(), id)
			if err != nil {
				return err
			}
			if jsonFlag {
				return writeJSON(cmd, results)
			}
			if len(results) == 0 {
				fmt.Fprintln(out, "No results imported yet")
				return nil
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				answered := "-"
				if r.AnsweredAt != nil {
					answered = r.AnsweredAt.Local().Format(time.DateTime)
				}
				rows = append(rows, []string{
					strconv.FormatInt(r.QuestionID, 10),
					r.DeviceID,
					strconv.Itoa(r.OptionIndex + 1),
					yesNo(r.Correct),
					strconv.Itoa(r.Points),
					answered,
					r.Origin,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Question", "Device", "Option", "Correct", "Points", "Answered", "Origin"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignLeft},
			))
			return nil
		})
	}

	cmd.Flags().BoolVar(&totalsFlag, "totals", false, "Show per-device point totals instead of individual answers")
	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit machine-readable JSON")
	return cmd
}

func parseSessionID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid session id %q", arg)
	}
	return id, nil
}
