package agenda

import (
	"reflect"
	"testing"
)

func TestParseICS(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []ParsedEvent
	}{
		{
			name: "minimal well-formed event",
			data: "BEGIN:VCALENDAR\r\nBEGIN:VEVENT\r\nSUMMARY:Test\r\nDTSTART:20260315\r\nDTEND:20260316\r\nEND:VEVENT\r\nEND:VCALENDAR",
			want: []ParsedEvent{
				{Title: "Test", Description: "", StartDate: "2026-03-15", EndDate: "2026-03-16"},
			},
		},
		{
			name: "missing DTEND defaults to DTSTART",
			data: "BEGIN:VEVENT\nSUMMARY:X\nDTSTART:20260101\nEND:VEVENT",
			want: []ParsedEvent{
				{Title: "X", StartDate: "2026-01-01", EndDate: "2026-01-01"},
			},
		},
		{
			name: "missing SUMMARY drops the event",
			data: "BEGIN:VEVENT\nDTSTART:20260101\nEND:VEVENT",
			want: []ParsedEvent{},
		},
		{
			name: "missing DTSTART drops the event",
			data: "BEGIN:VEVENT\nSUMMARY:No date\nEND:VEVENT",
			want: []ParsedEvent{},
		},
		{
			name: "date-time value truncates to date, no tz shift",
			data: "BEGIN:VEVENT\nSUMMARY:Meeting\nDTSTART:20260315T140000Z\nEND:VEVENT",
			want: []ParsedEvent{
				{Title: "Meeting", StartDate: "2026-03-15", EndDate: "2026-03-15"},
			},
		},
		{
			name: "VALUE=DATE parameter",
			data: "BEGIN:VEVENT\nSUMMARY:Holiday\nDTSTART;VALUE=DATE:20260211\nDTEND;VALUE=DATE:20260212\nEND:VEVENT",
			want: []ParsedEvent{
				{Title: "Holiday", StartDate: "2026-02-11", EndDate: "2026-02-12"},
			},
		},
		{
			name: "folded DESCRIPTION reassembles",
			data: "BEGIN:VEVENT\nSUMMARY:Folded\nDTSTART:20260301\nDESCRIPTION:This description is\n  quite long\nEND:VEVENT",
			want: []ParsedEvent{
				{Title: "Folded", Description: "This description is quite long", StartDate: "2026-03-01", EndDate: "2026-03-01"},
			},
		},
		{
			name: "escaped newlines unescape",
			data: "BEGIN:VEVENT\nSUMMARY:Multi\nDTSTART:20260301\nDESCRIPTION:Line1\\nLine2\nEND:VEVENT",
			want: []ParsedEvent{
				{Title: "Multi", Description: "Line1\nLine2", StartDate: "2026-03-01", EndDate: "2026-03-01"},
			},
		},
		{
			name: "value keeps embedded colons",
			data: "BEGIN:VEVENT\nSUMMARY:Recreo 10:30 a 11:00\nDTSTART:20260420\nEND:VEVENT",
			want: []ParsedEvent{
				{Title: "Recreo 10:30 a 11:00", StartDate: "2026-04-20", EndDate: "2026-04-20"},
			},
		},
		{
			name: "case-insensitive markers",
			data: "begin:vevent\nsummary:Lower\ndtstart:20260501\nend:vevent",
			want: []ParsedEvent{
				{Title: "Lower", StartDate: "2026-05-01", EndDate: "2026-05-01"},
			},
		},
		{
			name: "unterminated event discarded, next one kept",
			data: "BEGIN:VEVENT\nSUMMARY:Orphan\nDTSTART:20260601\nBEGIN:VEVENT\nSUMMARY:Kept\nDTSTART:20260602\nEND:VEVENT",
			want: []ParsedEvent{
				{Title: "Kept", StartDate: "2026-06-02", EndDate: "2026-06-02"},
			},
		},
		{
			name: "properties outside VEVENT are ignored",
			data: "SUMMARY:Stray\nDTSTART:20260101\nBEGIN:VTIMEZONE\nTZID:America/Mexico_City\nEND:VTIMEZONE",
			want: []ParsedEvent{},
		},
		{
			name: "invalid calendar date passes through",
			data: "BEGIN:VEVENT\nSUMMARY:Weird\nDTSTART:20260230\nEND:VEVENT",
			want: []ParsedEvent{
				{Title: "Weird", StartDate: "2026-02-30", EndDate: "2026-02-30"},
			},
		},
		{
			name: "non 8-digit date passes through unchanged",
			data: "BEGIN:VEVENT\nSUMMARY:Preformatted\nDTSTART:2026-07-01\nEND:VEVENT",
			want: []ParsedEvent{
				{Title: "Preformatted", StartDate: "2026-07-01", EndDate: "2026-07-01"},
			},
		},
		{
			name: "empty input",
			data: "",
			want: []ParsedEvent{},
		},
		{
			name: "garbage input",
			data: "this is not\nan ics file\nat all",
			want: []ParsedEvent{},
		},
		{
			name: "multiple events",
			data: "BEGIN:VCALENDAR\nBEGIN:VEVENT\nSUMMARY:A\nDTSTART:20260101\nEND:VEVENT\nBEGIN:VEVENT\nSUMMARY:B\nDTSTART:20260102\nDTEND:20260103\nEND:VEVENT\nEND:VCALENDAR",
			want: []ParsedEvent{
				{Title: "A", StartDate: "2026-01-01", EndDate: "2026-01-01"},
				{Title: "B", StartDate: "2026-01-02", EndDate: "2026-01-03"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseICS(tt.data)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseICS() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExtractDate(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"DTSTART:20260315", "2026-03-15"},
		{"DTSTART:20260315T140000Z", "2026-03-15"},
		{"DTSTART;VALUE=DATE:20260211", "2026-02-11"},
		{"DTSTART;TZID=America/Mexico_City:20260315T090000", "2026-03-15"},
		{"DTEND:2026-03-15", "2026-03-15"},
	}
	for _, tt := range tests {
		if got := extractDate(tt.line); got != tt.want {
			t.Errorf("extractDate(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}
