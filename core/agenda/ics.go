package agenda

import "strings"

// ParsedEvent is one VEVENT flattened to the fields the agenda persists.
// Dates are wall-clock YYYY-MM-DD strings; time-of-day and timezones are
// deliberately discarded so imported entries never shift across midnight.
type ParsedEvent struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"` // YYYY-MM-DD
	EndDate     string `json:"end_date"`   // YYYY-MM-DD
}

// ParseICS extracts VEVENT blocks from a raw .ics payload.
//
// The parser is total: malformed input yields fewer (or zero) events, never an
// error. Events missing SUMMARY or DTSTART are dropped. Unknown properties and
// lines outside a VEVENT (VCALENDAR headers, VTIMEZONE blocks, ...) are
// ignored. A missing DTEND defaults to DTSTART.
func ParseICS(data string) []ParsedEvent {
	events := make([]ParsedEvent, 0)
	lines := splitLines(data)

	var current *ParsedEvent

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		// RFC5545 line unfolding: a physical line starting with one space or
		// tab continues the previous logical line, minus that one character.
		for i+1 < len(lines) && isFolded(lines[i+1]) {
			i++
			line += lines[i][1:]
		}

		upper := strings.ToUpper(line)

		switch {
		case strings.HasPrefix(upper, "BEGIN:VEVENT"):
			current = &ParsedEvent{}
		case strings.HasPrefix(upper, "END:VEVENT"):
			if current != nil && current.Title != "" && current.StartDate != "" {
				if current.EndDate == "" {
					current.EndDate = current.StartDate
				}
				events = append(events, *current)
			}
			current = nil
		case current != nil:
			key, val := splitProperty(line)
			switch key {
			case "SUMMARY":
				current.Title = val
			case "DESCRIPTION":
				current.Description = strings.ReplaceAll(val, `\n`, "\n")
			case "DTSTART":
				current.StartDate = extractDate(line)
			case "DTEND":
				current.EndDate = extractDate(line)
			}
		}
	}
	return events
}

func splitLines(data string) []string {
	lines := strings.Split(data, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

func isFolded(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}

// splitProperty splits a "KEY[;PARAMS]:VALUE" content line. The key is taken
// up to the first ';' or ':' and upper-cased; the value keeps any further
// colons intact.
func splitProperty(line string) (key, val string) {
	idx := strings.Index(line, ":")
	if idx < 0 {
		key = line
	} else {
		key = line[:idx]
		val = strings.TrimSpace(line[idx+1:])
	}
	if semi := strings.Index(key, ";"); semi >= 0 {
		key = key[:semi]
	}
	return strings.ToUpper(strings.TrimSpace(key)), val
}

// extractDate pulls a YYYY-MM-DD date out of a raw DTSTART/DTEND line,
// parameters included (e.g. "DTSTART;VALUE=DATE:20260211" or
// "DTSTART:20260211T090000Z").
//
// The value after the last ':' is truncated at 'T' (time-of-day dropped, no
// timezone conversion) and an 8-digit YYYYMMDD is reformatted; anything else
// passes through unchanged. Calendrical validity is not checked.
func extractDate(line string) string {
	val := line
	if idx := strings.LastIndex(line, ":"); idx >= 0 {
		val = line[idx+1:]
	}
	datePart := val
	if idx := strings.Index(val, "T"); idx >= 0 {
		datePart = val[:idx]
	}
	if len(datePart) == 8 {
		return datePart[:4] + "-" + datePart[4:6] + "-" + datePart[6:8]
	}
	return datePart
}
