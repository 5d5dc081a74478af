package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apsinha/coursechat/internal/course"
)

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	Courses int
	Chunks  int
	Skipped int
}

// IngestDirectory loads every course document in dir into the index. Already
// known courses and malformed documents are skipped, not fatal; the run only
// fails when the directory is unreadable or the index rejects writes.
func (a *App) IngestDirectory(ctx context.Context, dir string) (*IngestResult, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	res := &IngestResult{}
	for _, entry := range entries {
		if entry.IsDir() || !isCourseFile(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		doc, err := a.parseFile(path)
		if errors.Is(err, course.ErrMalformedDocument) {
			a.logger.Warn("skipping malformed document", "file", entry.Name(), "error", err)
			res.Skipped++
			continue
		}
		if err != nil {
			return nil, err
		}

		if a.index.HasCourse(ctx, doc.Course.Title) {
			a.logger.Debug("course already indexed", "title", doc.Course.Title)
			res.Skipped++
			continue
		}

		if err := a.index.AddCourse(ctx, doc.Course); err != nil {
			return nil, fmt.Errorf("ingest %s: %w", entry.Name(), err)
		}
		chunks := a.chunker.BuildChunks(doc)
		if err := a.index.AddChunks(ctx, chunks); err != nil {
			return nil, fmt.Errorf("ingest %s: %w", entry.Name(), err)
		}

		res.Courses++
		res.Chunks += len(chunks)
		a.logger.Info("course ingested",
			"title", doc.Course.Title, "lessons", len(doc.Course.Lessons), "chunks", len(chunks))
	}

	return res, nil
}

func (a *App) parseFile(path string) (*course.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	defer f.Close()

	return course.ParseDocument(f, filepath.Base(path))
}

func isCourseFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md":
		return true
	default:
		return false
	}
}
