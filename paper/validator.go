package paper

import (
	"encoding/json"
	"strconv"
	"strings"
)

// The model is untrusted by construction: its output is treated as an
// adversarial payload and only question ids present in the snapshot survive.
// Marks are always taken from the snapshot, never from the response.

type aiResponse struct {
	Paper aiPaper `json:"paper"`
}

type aiPaper struct {
	Sections []aiSection `json:"sections"`
}

type aiSection struct {
	Section   string       `json:"section"`
	Questions []aiQuestion `json:"questions"`
}

type aiQuestion struct {
	QID flexID `json:"qid"`
}

// flexID accepts both numeric and quoted question ids; models routinely
// switch between the two.
type flexID int64

func (f *flexID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Not an id we can use; leave zero so the allow-list drops it.
		*f = 0
		return nil
	}
	*f = flexID(n)
	return nil
}

// ParseSelection converts raw model output into a Selection. It strips any
// markdown fencing, parses the JSON schema, and drops every question entry
// whose id is not in the snapshot. A parse failure or an output with zero
// surviving questions returns ok = false; that is an expected outcome, not
// an error.
func ParseSelection(raw string, snap *Snapshot) (*Selection, bool) {
	clean := stripFences(raw)

	var resp aiResponse
	if err := json.Unmarshal([]byte(clean), &resp); err != nil {
		return nil, false
	}

	sel := &Selection{Source: SourceGemini}
	// Positions are keyed by section name: models sometimes emit the same
	// section as several entries, and numbering must stay unique within the
	// merged section.
	positions := make(map[string]int)
	for _, section := range resp.Paper.Sections {
		name := section.Section
		if name == "" {
			name = "General"
		}
		for _, q := range section.Questions {
			record, ok := snap.Lookup(int64(q.QID))
			if !ok {
				continue
			}
			positions[name]++
			sel.Placed = append(sel.Placed, PlacedQuestion{
				Section:        name,
				QuestionNumber: positions[name],
				QuestionID:     record.ID,
				Marks:          record.Marks,
				IsCompulsory:   true,
			})
		}
	}

	if sel.Empty() {
		return nil, false
	}
	return sel, true
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag, and any prose before or after it.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	start := strings.Index(s, "```")
	if start < 0 {
		return s
	}
	s = s[start+3:]
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
		// Drop the language tag line (e.g. "json").
		s = s[nl+1:]
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}
