package course

import (
	"fmt"
	"regexp"
	"strings"
)

// sentenceEnd matches sentence-terminating punctuation followed by
// whitespace. Abbreviation handling is deliberately naive; a misplaced break
// only shifts a chunk boundary, it never loses text.
var sentenceEnd = regexp.MustCompile(`([.!?])\s+`)

// Chunker splits lesson text into overlapping segments sized for embedding.
//
// Size is the target character budget per chunk; Overlap is the number of
// trailing characters carried into the next chunk to preserve cross-chunk
// context. Breaks prefer sentence boundaries: sentences are packed greedily
// and a single oversized sentence becomes its own chunk rather than being
// split mid-word.
type Chunker struct {
	Size    int
	Overlap int
}

// NewChunker creates a Chunker, applying the given defaults when size or
// overlap are non-positive/invalid.
func NewChunker(size, overlap int) Chunker {
	if size <= 0 {
		size = 800
	}
	if overlap < 0 || overlap >= size {
		overlap = 100
	}
	return Chunker{Size: size, Overlap: overlap}
}

// Split breaks text into overlapping chunks. Text shorter than the chunk
// budget yields exactly one chunk; empty or whitespace-only text yields none.
func (c Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= c.Size {
		return []string{text}
	}

	sentences := splitSentences(text)

	var chunks []string
	var cur []string
	curLen := 0

	flush := func() {
		if len(cur) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(cur, " "))

		// Seed the next chunk with trailing sentences up to the overlap budget.
		var carry []string
		carryLen := 0
		for i := len(cur) - 1; i >= 0; i-- {
			n := len(cur[i])
			if carryLen+n > c.Overlap {
				break
			}
			carry = append([]string{cur[i]}, carry...)
			carryLen += n + 1
		}
		cur = carry
		curLen = carryLen
	}

	for _, s := range sentences {
		if curLen > 0 && curLen+len(s) > c.Size {
			flush()
		}
		cur = append(cur, s)
		curLen += len(s) + 1
	}
	if len(cur) > 0 {
		// Avoid emitting a final chunk that is nothing but carried overlap.
		last := strings.Join(cur, " ")
		if len(chunks) == 0 || !strings.HasSuffix(chunks[len(chunks)-1], last) {
			chunks = append(chunks, last)
		}
	}

	return chunks
}

// splitSentences splits text at sentence-ending punctuation, keeping the
// punctuation with the preceding sentence.
func splitSentences(text string) []string {
	marked := sentenceEnd.ReplaceAllString(text, "$1\x00")
	parts := strings.Split(marked, "\x00")

	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

// BuildChunks runs the chunker over every lesson of a parsed document and
// produces ordered, metadata-bearing chunks with a per-course running index.
// The first chunk of each lesson is prefixed with a course/lesson context
// line so retrieval hits stay interpretable without their neighbors.
func (c Chunker) BuildChunks(doc *Document) []Chunk {
	var chunks []Chunk
	idx := 0

	for _, lt := range doc.Lessons {
		pieces := c.Split(lt.Text)
		for i, piece := range pieces {
			content := piece
			if i == 0 && lt.Lesson.Number >= 0 {
				content = fmt.Sprintf("Lesson %d content: %s", lt.Lesson.Number, piece)
			}
			chunks = append(chunks, Chunk{
				Content:      content,
				CourseTitle:  doc.Course.Title,
				LessonNumber: lt.Lesson.Number,
				Index:        idx,
			})
			idx++
		}
	}

	return chunks
}
