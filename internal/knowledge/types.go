package knowledge

// Hit is one retrieval result from the content collection.
type Hit struct {
	Content      string
	CourseTitle  string
	LessonNumber int
	Similarity   float32
}

// Filter narrows a content query. Zero values mean "no constraint";
// LessonNumber uses a pointer so lesson 0 remains expressible.
type Filter struct {
	CourseTitle  string
	LessonNumber *int
}
