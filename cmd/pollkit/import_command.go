package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pollkit/internal/config"
	"pollkit/internal/importer"
	"pollkit/internal/store"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var sessionFlag int64
	var resolveFlags []string
	var previewFlag bool

	cmd := &cobra.Command{
		Use:   "import <archive>",
		Short: "Import responses from a returned distribution archive",
		Long: "Extracts responses from the archive's session document, removes " +
			"duplicate answers, flags anomalies, and persists graded results once " +
			"every flagged device carries a resolution.\n\n" +
			"Resolutions take the form DEVICE=ACTION with optional arguments:\n" +
			"  AAA=mark-absent\n" +
			"  AAA=ignore-device\n" +
			"  AAA=aggregate-with-unknown:UNKNOWN_DEVICE\n" +
			"  ZZZ=ignore-responses\n" +
			"  ZZZ=add-as-new-participant:GIVEN:FAMILY[:ORGANIZATION]",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sessionFlag <= 0 {
				return fmt.Errorf("--session is required")
			}
			resolutions, err := parseResolutions(resolveFlags)
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				imp := importer.New(st, logger)
				if previewFlag {
					anomalies, err := imp.Preview(cmd.Context(), sessionFlag, args[0])
					if err != nil {
						return err
					}
					printAnomalies(cmd, anomalies)
					return nil
				}
				summary, err := imp.Run(cmd.Context(), importer.Options{
					SessionID:   sessionFlag,
					ArchivePath: args[0],
					Resolutions: resolutions,
				})
				if err != nil {
					return err
				}
				printImportSummary(cmd, summary)
				return nil
			})
		},
	}

	cmd.Flags().Int64VarP(&sessionFlag, "session", "s", 0, "Session identifier the archive belongs to")
	cmd.Flags().StringArrayVarP(&resolveFlags, "resolve", "r", nil, "Resolution for a flagged device (repeatable)")
	cmd.Flags().BoolVar(&previewFlag, "preview", false, "Detect anomalies without persisting anything")
	return cmd
}

// parseResolutions turns DEVICE=ACTION[:ARG...] tokens into resolutions.
func parseResolutions(tokens []string) ([]importer.Resolution, error) {
	resolutions := make([]importer.Resolution, 0, len(tokens))
	for _, token := range tokens {
		device, rest, found := strings.Cut(token, "=")
		device = strings.TrimSpace(device)
		if !found || device == "" {
			return nil, fmt.Errorf("invalid resolution %q: want DEVICE=ACTION", token)
		}
		parts := strings.Split(rest, ":")
		action, err := importer.ParseAction(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid resolution %q: %w", token, err)
		}

		res := importer.Resolution{DeviceID: device, Action: action}
		args := parts[1:]
		switch action {
		case importer.ActionAggregate:
			if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
				return nil, fmt.Errorf("invalid resolution %q: %s needs the unknown device, e.g. %s=%s:ZZZ",
					token, action, device, action)
			}
			res.SourceDevice = strings.TrimSpace(args[0])
		case importer.ActionAddParticipant:
			if len(args) < 2 || len(args) > 3 {
				return nil, fmt.Errorf("invalid resolution %q: %s needs GIVEN:FAMILY and an optional ORGANIZATION",
					token, action)
			}
			res.GivenName = strings.TrimSpace(args[0])
			res.FamilyName = strings.TrimSpace(args[1])
			if len(args) == 3 {
				res.Organization = strings.TrimSpace(args[2])
			}
		default:
			if len(args) != 0 {
				return nil, fmt.Errorf("invalid resolution %q: %s takes no arguments", token, action)
			}
		}
		resolutions = append(resolutions, res)
	}
	return resolutions, nil
}

func printAnomalies(cmd *cobra.Command, anomalies importer.Anomalies) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	fmt.Fprintln(out, renderStatusLine("clean responses", statusOK,
		strconv.Itoa(len(anomalies.Clean)), colorize))

	if !anomalies.NeedsResolution() {
		fmt.Fprintln(out, "No anomalies; the archive can be imported as is.")
		return
	}

	if len(anomalies.Expected) > 0 {
		rows := make([][]string, 0, len(anomalies.Expected))
		for _, issue := range anomalies.Expected {
			rows = append(rows, []string{
				issue.DeviceID,
				strconv.Itoa(len(issue.Responses)),
				strings.Join(issue.Missing, ", "),
			})
		}
		fmt.Fprintln(out, "Roster devices with missing answers:")
		fmt.Fprintln(out, renderTable(
			[]string{"Device", "Responses", "Missing slides"},
			rows,
			[]columnAlignment{alignLeft, alignRight, alignLeft},
		))
	}

	if len(anomalies.Unregistered) > 0 {
		rows := make([][]string, 0, len(anomalies.Unregistered))
		for _, issue := range anomalies.Unregistered {
			rows = append(rows, []string{issue.DeviceID, strconv.Itoa(len(issue.Responses))})
		}
		fmt.Fprintln(out, "Devices not on the roster:")
		fmt.Fprintln(out, renderTable(
			[]string{"Device", "Responses"},
			rows,
			[]columnAlignment{alignLeft, alignRight},
		))
	}

	fmt.Fprintln(out, "Resolve each flagged device with --resolve, then run the import again.")
}

func printImportSummary(cmd *cobra.Command, summary *importer.Summary) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	fmt.Fprintln(out, renderStatusLine("results persisted", statusOK,
		strconv.Itoa(summary.ResultCount), colorize))
	fmt.Fprintf(out, "Responses extracted: %d (duplicates removed: %d)\n",
		summary.ResponseCount, summary.DuplicateCount)
	if dropped := summary.Dropped.Total(); dropped > 0 {
		fmt.Fprintln(out, renderStatusLine("rows dropped", statusWarn, fmt.Sprintf(
			"%d (unresolved device %d, missing slide id %d, missing answer %d)",
			dropped,
			summary.Dropped.UnresolvedDevice,
			summary.Dropped.MissingGUID,
			summary.Dropped.MissingAnswer,
		), colorize))
	}
	if len(summary.AbsentDevices) > 0 {
		fmt.Fprintf(out, "Marked absent: %s\n", strings.Join(summary.AbsentDevices, ", "))
	}
	if summary.NewParticipants > 0 {
		fmt.Fprintf(out, "New participants added: %d\n", summary.NewParticipants)
	}
}
