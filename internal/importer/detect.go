package importer

import (
	"sort"

	"pollkit/internal/sessiondoc"
)

// DeviceIssue is one flagged device: a roster device with unanswered slides,
// or an off-roster device that responded.
type DeviceIssue struct {
	DeviceID string
	// Missing lists the relevant slide identifiers the device did not
	// answer. Empty for unregistered devices.
	Missing []string
	// Responses holds the device's own responses, withheld from the final
	// set until the operator resolves the issue.
	Responses []Response
}

// Anomalies partitions the deduplicated response set. Every input response
// lands in exactly one of Clean, an Expected issue, or an Unregistered
// issue.
type Anomalies struct {
	// Clean holds responses from roster devices that answered everything.
	Clean []Response
	// Expected flags roster devices with at least one missing relevant
	// slide, in roster order.
	Expected []DeviceIssue
	// Unregistered groups responses from devices absent from the roster,
	// in order of first appearance.
	Unregistered []DeviceIssue
}

// NeedsResolution reports whether the operator must decide anything before
// the import can finalize.
func (a Anomalies) NeedsResolution() bool {
	return len(a.Expected) > 0 || len(a.Unregistered) > 0
}

// Detect partitions responses against the roster and the relevant slide set.
// With no relevant slides, no roster device can be flagged; off-roster
// responders are flagged regardless.
func Detect(roster []sessiondoc.RosterEntry, relevantGUIDs []string, responses []Response) Anomalies {
	relevant := make(map[string]bool, len(relevantGUIDs))
	for _, g := range relevantGUIDs {
		relevant[g] = true
	}
	rostered := make(map[string]bool, len(roster))
	for _, entry := range roster {
		rostered[entry.DeviceID] = true
	}

	byDevice := make(map[string][]Response)
	var unregisteredOrder []string
	for _, r := range responses {
		if !rostered[r.DeviceID] && byDevice[r.DeviceID] == nil {
			unregisteredOrder = append(unregisteredOrder, r.DeviceID)
		}
		byDevice[r.DeviceID] = append(byDevice[r.DeviceID], r)
	}

	anomalies := Anomalies{}
	for _, entry := range roster {
		own := byDevice[entry.DeviceID]
		missing := missingGUIDs(relevantGUIDs, relevant, own)
		if len(relevant) == 0 || len(missing) == 0 {
			anomalies.Clean = append(anomalies.Clean, own...)
			continue
		}
		anomalies.Expected = append(anomalies.Expected, DeviceIssue{
			DeviceID:  entry.DeviceID,
			Missing:   missing,
			Responses: own,
		})
	}
	for _, device := range unregisteredOrder {
		anomalies.Unregistered = append(anomalies.Unregistered, DeviceIssue{
			DeviceID:  device,
			Responses: byDevice[device],
		})
	}
	return anomalies
}

func missingGUIDs(relevantGUIDs []string, relevant map[string]bool, responses []Response) []string {
	answered := make(map[string]bool, len(responses))
	for _, r := range responses {
		if relevant[r.GUID] {
			answered[r.GUID] = true
		}
	}
	var missing []string
	for _, g := range relevantGUIDs {
		if !answered[g] {
			missing = append(missing, g)
		}
	}
	sort.Strings(missing)
	return missing
}
