// Package learn stores taught responses. A lesson pairs a trigger
// phrase with the reply the user wants, and looked-up lessons answer
// matching messages without calling the model at all.
package learn

import (
	"context"
	"errors"
	"strings"

	"github.com/fennec-ai/fennec/pkg/store"
)

// Lessons manages taught trigger/response pairs.
type Lessons struct {
	lessons store.LessonStore
}

// New creates a Lessons service over the given storage.
func New(lessons store.LessonStore) *Lessons {
	return &Lessons{lessons: lessons}
}

// Teach saves a lesson. Re-teaching an existing trigger replaces its
// response.
func (l *Lessons) Teach(ctx context.Context, trigger, response string) error {
	trigger = strings.TrimSpace(trigger)
	response = strings.TrimSpace(response)
	if trigger == "" {
		return errors.New("trigger is empty")
	}
	if response == "" {
		return errors.New("response is empty")
	}
	return l.lessons.SaveLesson(ctx, trigger, response)
}

// Lookup finds a lesson whose trigger appears in the message, matching
// case-insensitively as a substring. A hit increments the lesson's usage
// count. When several lessons match, the longest trigger wins.
func (l *Lessons) Lookup(ctx context.Context, message string) (string, bool, error) {
	all, err := l.lessons.ListLessons(ctx)
	if err != nil {
		return "", false, err
	}

	lowered := strings.ToLower(message)
	var best *store.Lesson
	for i := range all {
		lesson := &all[i]
		if !strings.Contains(lowered, strings.ToLower(lesson.Trigger)) {
			continue
		}
		if best == nil || len(lesson.Trigger) > len(best.Trigger) {
			best = lesson
		}
	}
	if best == nil {
		return "", false, nil
	}

	if err := l.lessons.IncrementLessonUsage(ctx, best.Trigger); err != nil {
		return "", false, err
	}
	return best.Response, true, nil
}

// List returns every taught lesson.
func (l *Lessons) List(ctx context.Context) ([]store.Lesson, error) {
	return l.lessons.ListLessons(ctx)
}

// Stats summarizes how much has been taught and used.
type Stats struct {
	LessonCount int
	TotalUsage  int
}

// Stats reports lesson totals.
func (l *Lessons) Stats(ctx context.Context) (Stats, error) {
	all, err := l.lessons.ListLessons(ctx)
	if err != nil {
		return Stats{}, err
	}

	s := Stats{LessonCount: len(all)}
	for _, lesson := range all {
		s.TotalUsage += lesson.UsageCount
	}
	return s, nil
}
