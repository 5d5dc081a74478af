// Package knowledge maintains the two-collection vector index behind course
// retrieval: a catalog collection holding one embedded title entry per course
// and a content collection holding the embedded lesson chunks.
package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/firebase/genkit/go/ai"
	chromem "github.com/philippgille/chromem-go"

	"github.com/apsinha/coursechat/internal/course"
)

// Collection names inside the chromem database.
const (
	catalogCollection = "course_catalog"
	contentCollection = "course_content"
)

// ErrCourseNotFound indicates a course name that resolved to nothing, either
// because the catalog is empty or the query matched no entry.
var ErrCourseNotFound = errors.New("course not found")

// Index is the vector store for course material. Catalog entries are embedded
// by course title so fuzzy name resolution works; content entries are embedded
// chunk text carrying course/lesson metadata for filtered retrieval.
//
// All methods are safe for concurrent use.
type Index struct {
	catalog *chromem.Collection
	content *chromem.Collection
	logger  *slog.Logger

	mu      sync.RWMutex
	courses map[string]course.Course
}

// NewIndex opens (or creates) both collections in db using the given embedder
// for all vectorization.
func NewIndex(db *chromem.DB, embedder ai.Embedder, logger *slog.Logger) (*Index, error) {
	embed := newEmbeddingFunc(embedder)

	catalog, err := db.GetOrCreateCollection(catalogCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("open catalog collection: %w", err)
	}
	content, err := db.GetOrCreateCollection(contentCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("open content collection: %w", err)
	}

	return &Index{
		catalog: catalog,
		content: content,
		logger:  logger,
		courses: make(map[string]course.Course),
	}, nil
}

// AddCourse stores course metadata in the catalog, keyed and embedded by
// title. Adding the same title again overwrites the previous entry, so
// ingestion stays idempotent.
func (ix *Index) AddCourse(ctx context.Context, c course.Course) error {
	if c.Title == "" {
		return fmt.Errorf("add course: empty title")
	}

	lessons, err := json.Marshal(c.Lessons)
	if err != nil {
		return fmt.Errorf("add course %q: encode lessons: %w", c.Title, err)
	}

	doc := chromem.Document{
		ID:      c.Title,
		Content: c.Title,
		Metadata: map[string]string{
			"link":       c.Link,
			"instructor": c.Instructor,
			"lessons":    string(lessons),
		},
	}
	if err := ix.catalog.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add course %q: %w", c.Title, err)
	}

	ix.cacheCourse(c)

	ix.logger.Debug("course added to catalog", "title", c.Title, "lessons", len(c.Lessons))
	return nil
}

// HasCourse reports whether a course with exactly this title is indexed. With
// a persistent database the check reaches the stored catalog, so a restarted
// process skips re-embedding instead of re-ingesting everything.
func (ix *Index) HasCourse(ctx context.Context, title string) bool {
	ix.mu.RLock()
	_, ok := ix.courses[title]
	ix.mu.RUnlock()
	if ok {
		return true
	}

	c, err := ix.loadCourse(ctx, title)
	if err != nil {
		return false
	}
	ix.cacheCourse(c)
	return true
}

// AddChunks embeds and stores content chunks. Chunk IDs derive from the
// course title and per-course chunk index, so re-adding the same course
// overwrites rather than duplicates.
func (ix *Index) AddChunks(ctx context.Context, chunks []course.Chunk) error {
	for _, ch := range chunks {
		meta := map[string]string{
			"course_title": ch.CourseTitle,
		}
		if ch.LessonNumber >= 0 {
			meta["lesson_number"] = strconv.Itoa(ch.LessonNumber)
		}

		doc := chromem.Document{
			ID:       fmt.Sprintf("%s_%d", ch.CourseTitle, ch.Index),
			Content:  ch.Content,
			Metadata: meta,
		}
		if err := ix.content.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("add chunk %d of %q: %w", ch.Index, ch.CourseTitle, err)
		}
	}

	ix.logger.Debug("chunks added", "count", len(chunks))
	return nil
}

// ResolveCourse maps a partial or fuzzy course name to the best-matching
// catalog title. The single nearest catalog entry wins regardless of
// distance; an empty catalog or an empty result yields ErrCourseNotFound.
func (ix *Index) ResolveCourse(ctx context.Context, name string) (string, error) {
	if ix.catalog.Count() == 0 {
		return "", fmt.Errorf("resolve %q: %w", name, ErrCourseNotFound)
	}

	results, err := ix.catalog.Query(ctx, name, 1, nil, nil)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", name, err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("resolve %q: %w", name, ErrCourseNotFound)
	}
	return results[0].Content, nil
}

// Query runs a semantic search over the content collection. The result list
// may be empty; that is a successful query, not an error. k is clamped to the
// collection size.
func (ix *Index) Query(ctx context.Context, text string, k int, f Filter) ([]Hit, error) {
	if k <= 0 {
		k = 1
	}
	if n := ix.content.Count(); n == 0 {
		return nil, nil
	} else if k > n {
		k = n
	}

	where := map[string]string{}
	if f.CourseTitle != "" {
		where["course_title"] = f.CourseTitle
	}
	if f.LessonNumber != nil {
		where["lesson_number"] = strconv.Itoa(*f.LessonNumber)
	}
	if len(where) == 0 {
		where = nil
	}

	results, err := ix.content.Query(ctx, text, k, where, nil)
	if err != nil {
		return nil, fmt.Errorf("query content: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{
			Content:      r.Content,
			CourseTitle:  r.Metadata["course_title"],
			LessonNumber: lessonNumber(r.Metadata),
			Similarity:   r.Similarity,
		})
	}
	return hits, nil
}

// Course returns the full catalog record for an exact title, reading through
// to the persisted catalog when the title was indexed by an earlier process.
func (ix *Index) Course(ctx context.Context, title string) (course.Course, error) {
	ix.mu.RLock()
	c, ok := ix.courses[title]
	ix.mu.RUnlock()
	if ok {
		return c, nil
	}

	c, err := ix.loadCourse(ctx, title)
	if err != nil {
		return course.Course{}, err
	}
	ix.cacheCourse(c)
	return c, nil
}

// loadCourse reconstructs a Course from its persisted catalog document.
func (ix *Index) loadCourse(ctx context.Context, title string) (course.Course, error) {
	doc, err := ix.catalog.GetByID(ctx, title)
	if err != nil {
		return course.Course{}, fmt.Errorf("course %q: %w", title, ErrCourseNotFound)
	}

	c := course.Course{
		Title:      doc.ID,
		Link:       doc.Metadata["link"],
		Instructor: doc.Metadata["instructor"],
	}
	if raw := doc.Metadata["lessons"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &c.Lessons); err != nil {
			return course.Course{}, fmt.Errorf("course %q: decode lessons: %w", title, err)
		}
	}
	return c, nil
}

func (ix *Index) cacheCourse(c course.Course) {
	ix.mu.Lock()
	ix.courses[c.Title] = c
	ix.mu.Unlock()
}

// CourseCount reports how many courses the catalog holds.
func (ix *Index) CourseCount() int {
	return ix.catalog.Count()
}

// CourseTitles lists all catalog titles in sorted order.
func (ix *Index) CourseTitles() []string {
	ix.mu.RLock()
	titles := make([]string, 0, len(ix.courses))
	for t := range ix.courses {
		titles = append(titles, t)
	}
	ix.mu.RUnlock()

	sort.Strings(titles)
	return titles
}

// newEmbeddingFunc adapts a Genkit embedder to the callback chromem invokes
// per document. chromem normalizes vectors itself, so the embedding is passed
// through raw.
func newEmbeddingFunc(embedder ai.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		resp, err := embedder.Embed(ctx, &ai.EmbedRequest{
			Input: []*ai.Document{ai.DocumentFromText(text, nil)},
		})
		if err != nil {
			return nil, fmt.Errorf("embed: %w", err)
		}
		if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
			return nil, errors.New("embedder returned no vector")
		}
		return resp.Embeddings[0].Embedding, nil
	}
}

func lessonNumber(meta map[string]string) int {
	s, ok := meta["lesson_number"]
	if !ok {
		return -1
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
