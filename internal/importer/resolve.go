package importer

import (
	"fmt"
	"strings"

	"pollkit/internal/services"
	"pollkit/internal/sessiondoc"
)

// Action is an operator decision for one flagged device.
type Action string

const (
	// Expected-with-issue actions.
	ActionMarkAbsent   Action = "mark-absent"
	ActionAggregate    Action = "aggregate-with-unknown"
	ActionIgnoreDevice Action = "ignore-device"

	// Unregistered-device actions.
	ActionIgnoreResponses Action = "ignore-responses"
	ActionAddParticipant  Action = "add-as-new-participant"
)

// ParseAction validates an operator-supplied action token.
func ParseAction(value string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(value))) {
	case ActionMarkAbsent:
		return ActionMarkAbsent, nil
	case ActionAggregate:
		return ActionAggregate, nil
	case ActionIgnoreDevice:
		return ActionIgnoreDevice, nil
	case ActionIgnoreResponses:
		return ActionIgnoreResponses, nil
	case ActionAddParticipant:
		return ActionAddParticipant, nil
	default:
		return "", services.Wrap(services.ErrValidation, "importer", "parse action", fmt.Sprintf("unknown resolution action %q", value), nil)
	}
}

// Resolution is one operator decision.
type Resolution struct {
	DeviceID string
	Action   Action
	// SourceDevice names the unregistered device consumed by an
	// aggregate-with-unknown action.
	SourceDevice string
	// Participant naming for add-as-new-participant.
	GivenName    string
	FamilyName   string
	Organization string
}

// Outcome is the finalized response set plus the roster effects of the
// operator's decisions.
type Outcome struct {
	// Final holds every response that survives into grading.
	Final []Response
	// Absent lists roster devices whose grade is zeroed.
	Absent []string
	// NewEntries are participants to append to the roster.
	NewEntries []sessiondoc.RosterEntry
}

// Resolve applies operator decisions to the anomaly set. It is a pure
// reducer: no I/O, no mutation of its inputs. Finalization is refused while
// any flagged device is unresolved or a resolution is internally
// inconsistent.
func Resolve(anomalies Anomalies, resolutions []Resolution) (Outcome, error) {
	expected := make(map[string]DeviceIssue, len(anomalies.Expected))
	for _, issue := range anomalies.Expected {
		expected[issue.DeviceID] = issue
	}
	unregistered := make(map[string]DeviceIssue, len(anomalies.Unregistered))
	for _, issue := range anomalies.Unregistered {
		unregistered[issue.DeviceID] = issue
	}

	byDevice := make(map[string]Resolution, len(resolutions))
	consumed := make(map[string]bool)
	for _, res := range resolutions {
		if _, dup := byDevice[res.DeviceID]; dup {
			return Outcome{}, services.Wrap(services.ErrValidation, "importer", "resolve",
				fmt.Sprintf("device %s has conflicting resolutions", res.DeviceID), nil)
		}
		byDevice[res.DeviceID] = res

		_, isExpected := expected[res.DeviceID]
		_, isUnregistered := unregistered[res.DeviceID]
		if !isExpected && !isUnregistered {
			return Outcome{}, services.Wrap(services.ErrValidation, "importer", "resolve",
				fmt.Sprintf("device %s is not flagged", res.DeviceID), nil)
		}

		switch res.Action {
		case ActionMarkAbsent, ActionIgnoreDevice:
			if !isExpected {
				return Outcome{}, services.Wrap(services.ErrValidation, "importer", "resolve",
					fmt.Sprintf("%s only applies to roster devices", res.Action), nil)
			}
		case ActionAggregate:
			if !isExpected {
				return Outcome{}, services.Wrap(services.ErrValidation, "importer", "resolve",
					fmt.Sprintf("%s only applies to roster devices", res.Action), nil)
			}
			if res.SourceDevice == "" {
				return Outcome{}, services.Wrap(services.ErrResolutionPending, "importer", "resolve",
					fmt.Sprintf("aggregation for %s has no source device", res.DeviceID), nil)
			}
			if _, ok := unregistered[res.SourceDevice]; !ok {
				return Outcome{}, services.Wrap(services.ErrValidation, "importer", "resolve",
					fmt.Sprintf("aggregation source %s is not an unregistered device", res.SourceDevice), nil)
			}
			if consumed[res.SourceDevice] {
				return Outcome{}, services.Wrap(services.ErrValidation, "importer", "resolve",
					fmt.Sprintf("source %s is already consumed by another aggregation", res.SourceDevice), nil)
			}
			consumed[res.SourceDevice] = true
		case ActionIgnoreResponses, ActionAddParticipant:
			if !isUnregistered {
				return Outcome{}, services.Wrap(services.ErrValidation, "importer", "resolve",
					fmt.Sprintf("%s only applies to unregistered devices", res.Action), nil)
			}
			if res.Action == ActionAddParticipant && res.GivenName == "" && res.FamilyName == "" {
				return Outcome{}, services.Wrap(services.ErrResolutionPending, "importer", "resolve",
					fmt.Sprintf("new participant %s has no name", res.DeviceID), nil)
			}
		default:
			return Outcome{}, services.Wrap(services.ErrValidation, "importer", "resolve",
				fmt.Sprintf("device %s has unknown action %q", res.DeviceID, res.Action), nil)
		}
	}

	// A consumed source must not also carry its own resolution.
	for device := range consumed {
		if _, ok := byDevice[device]; ok {
			return Outcome{}, services.Wrap(services.ErrValidation, "importer", "resolve",
				fmt.Sprintf("source %s is consumed by an aggregation and cannot be resolved independently", device), nil)
		}
	}

	// Everything flagged needs a terminal decision before finalization.
	for _, issue := range anomalies.Expected {
		if _, ok := byDevice[issue.DeviceID]; !ok {
			return Outcome{}, services.Wrap(services.ErrResolutionPending, "importer", "resolve",
				fmt.Sprintf("roster device %s is still pending", issue.DeviceID), nil)
		}
	}
	for _, issue := range anomalies.Unregistered {
		if consumed[issue.DeviceID] {
			continue
		}
		if _, ok := byDevice[issue.DeviceID]; !ok {
			return Outcome{}, services.Wrap(services.ErrResolutionPending, "importer", "resolve",
				fmt.Sprintf("unregistered device %s is still pending", issue.DeviceID), nil)
		}
	}

	outcome := Outcome{Final: append([]Response(nil), anomalies.Clean...)}
	for _, issue := range anomalies.Expected {
		res := byDevice[issue.DeviceID]
		switch res.Action {
		case ActionMarkAbsent, ActionIgnoreDevice:
			outcome.Absent = append(outcome.Absent, issue.DeviceID)
		case ActionAggregate:
			outcome.Final = append(outcome.Final, aggregate(issue, unregistered[res.SourceDevice])...)
		}
	}
	for _, issue := range anomalies.Unregistered {
		if consumed[issue.DeviceID] {
			continue
		}
		res := byDevice[issue.DeviceID]
		switch res.Action {
		case ActionIgnoreResponses:
			// dropped
		case ActionAddParticipant:
			outcome.NewEntries = append(outcome.NewEntries, sessiondoc.RosterEntry{
				DeviceID:     issue.DeviceID,
				GivenName:    res.GivenName,
				FamilyName:   res.FamilyName,
				Organization: res.Organization,
			})
			outcome.Final = append(outcome.Final, issue.Responses...)
		}
	}
	return outcome, nil
}

// aggregate unions a roster device's partial responses with its source
// device's responses, re-tagged with the roster device's identifier. On a
// shared slide the source's answer wins.
func aggregate(target, source DeviceIssue) []Response {
	merged := make([]Response, 0, len(target.Responses)+len(source.Responses))
	at := make(map[string]int, len(target.Responses))
	for _, r := range target.Responses {
		at[r.GUID] = len(merged)
		merged = append(merged, r)
	}
	for _, r := range source.Responses {
		r.DeviceID = target.DeviceID
		if i, ok := at[r.GUID]; ok {
			merged[i] = r
			continue
		}
		at[r.GUID] = len(merged)
		merged = append(merged, r)
	}
	return merged
}
