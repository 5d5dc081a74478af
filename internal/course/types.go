// Package course defines the course document model and turns raw course
// documents into indexable content chunks.
package course

// Course represents one course document. Courses are created once at
// ingestion, identified by title, and never mutated afterwards.
type Course struct {
	Title      string   // Unique identifier across the corpus
	Link       string   // Optional course URL
	Instructor string   // Optional instructor name
	Lessons    []Lesson // Ordered by lesson number
}

// Lesson is a numbered section owned by exactly one Course.
type Lesson struct {
	Number int    // Unique within the course
	Title  string
	Link   string // Optional lesson URL
}

// Chunk is a text segment produced by the Chunker from one lesson.
// Chunks are immutable after creation; Index is the per-course running
// position used to build the synthetic vector-store document ID.
type Chunk struct {
	Content      string
	CourseTitle  string
	LessonNumber int // -1 when the chunk is not tied to a lesson
	Index        int
}
