package importer

// Dedupe collapses responses sharing (device, slide identifier) down to one.
// The response with the later timestamp survives; ties and missing
// timestamps keep the first seen. Survivors keep the position of their first
// occurrence, so the function is idempotent.
func Dedupe(responses []Response) []Response {
	kept := make([]Response, 0, len(responses))
	index := make(map[[2]string]int, len(responses))

	for _, r := range responses {
		key := [2]string{r.DeviceID, r.GUID}
		at, seen := index[key]
		if !seen {
			index[key] = len(kept)
			kept = append(kept, r)
			continue
		}
		if r.Answered.After(kept[at].Answered) {
			kept[at] = r
		}
	}
	return kept
}
