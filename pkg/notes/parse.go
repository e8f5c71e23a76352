package notes

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxDateLen bounds the prefix accepted as a date in "date|text" lines.
const maxDateLen = 32

// ParseNotes reads one note per line. Blank lines and lines starting with
// '#' are skipped. A line of the form "date|text" records the date as
// metadata.
func ParseNotes(r io.Reader) ([]Note, error) {
	var out []Note

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		note := Note{Text: line}
		if date, text, ok := strings.Cut(line, "|"); ok {
			date = strings.TrimSpace(date)
			text = strings.TrimSpace(text)
			if date != "" && len(date) <= maxDateLen && !strings.ContainsAny(date, " \t") {
				if text == "" {
					return nil, fmt.Errorf("line %d: note text is empty", lineNo)
				}
				note = Note{
					Text:     text,
					Metadata: map[string]string{MetadataDate: date},
				}
			}
		}
		out = append(out, note)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading notes: %w", err)
	}

	return out, nil
}
