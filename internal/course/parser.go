package course

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// ErrMalformedDocument indicates an ingestion input that does not follow the
// expected course document format. The caller decides whether to skip the
// file or abort ingestion.
var ErrMalformedDocument = errors.New("malformed course document")

// lessonMarker matches section delimiters like "Lesson 3: Prompt caching".
var lessonMarker = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// LessonText pairs a lesson with its raw body text, preserving document order.
type LessonText struct {
	Lesson Lesson
	Text   string
}

// Document is the parsed form of one course file: header metadata plus the
// raw per-lesson bodies that the Chunker consumes.
type Document struct {
	Course  Course
	Lessons []LessonText
}

// ParseDocument parses a raw course document.
//
// Expected format: a header block of "Course Title:", "Course Link:" and
// "Course Instructor:" lines (title required, rest optional), followed by one
// or more sections each starting with "Lesson N: <title>" and an optional
// "Lesson Link:" line. Text before the first lesson marker is attached to a
// synthetic lesson -1 so no content is silently dropped.
//
// A missing title line fails with ErrMalformedDocument wrapped with the
// document name.
func ParseDocument(r io.Reader, name string) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	doc := &Document{}
	body := parseHeader(lines, &doc.Course)
	if doc.Course.Title == "" {
		return nil, fmt.Errorf("%w: %s: missing \"Course Title:\" header line", ErrMalformedDocument, name)
	}

	parseLessons(body, doc)
	return doc, nil
}

// parseHeader consumes the leading header lines and returns the remaining
// body lines. Header lines may appear in any order; the header ends at the
// first line that is neither a header field nor blank.
func parseHeader(lines []string, c *Course) []string {
	i := 0
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		switch {
		case line == "":
			// blank lines between header fields are fine
		case strings.HasPrefix(line, "Course Title:"):
			c.Title = strings.TrimSpace(strings.TrimPrefix(line, "Course Title:"))
		case strings.HasPrefix(line, "Course Link:"):
			c.Link = strings.TrimSpace(strings.TrimPrefix(line, "Course Link:"))
		case strings.HasPrefix(line, "Course Instructor:"):
			c.Instructor = strings.TrimSpace(strings.TrimPrefix(line, "Course Instructor:"))
		default:
			return lines[i:]
		}
	}
	return nil
}

// parseLessons splits the body into lesson sections and records each lesson
// on the course. Content preceding the first marker becomes lesson -1.
func parseLessons(lines []string, doc *Document) {
	current := Lesson{Number: -1}
	var buf []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(buf, "\n"))
		if text == "" && current.Number == -1 {
			return // no preamble content
		}
		if current.Number >= 0 {
			doc.Course.Lessons = append(doc.Course.Lessons, current)
		}
		if text != "" {
			doc.Lessons = append(doc.Lessons, LessonText{Lesson: current, Text: text})
		}
		buf = buf[:0]
	}

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if m := lessonMarker.FindStringSubmatch(line); m != nil {
			flush()
			n, err := strconv.Atoi(m[1])
			if err != nil {
				n = -1 // cannot happen with the \d+ pattern
			}
			current = Lesson{Number: n, Title: strings.TrimSpace(m[2])}
			continue
		}
		if strings.HasPrefix(line, "Lesson Link:") && current.Link == "" && len(buf) == 0 {
			current.Link = strings.TrimSpace(strings.TrimPrefix(line, "Lesson Link:"))
			continue
		}
		buf = append(buf, raw)
	}
	flush()
}
