package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/pal/internal/dataset"
	"github.com/abhisek/pal/internal/llm"
	"github.com/abhisek/pal/internal/questions"
	"github.com/abhisek/pal/internal/store"
)

// loadLesson builds the lesson from the configured dataset, or the
// built-in sample lesson.
func loadLesson() (*dataset.Lesson, error) {
	if cfg.Dataset.Path == "" {
		return dataset.DefaultLesson(), nil
	}
	items, err := dataset.LoadFile(cfg.Dataset.Path)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	log.Info("loaded dataset", zap.String("path", cfg.Dataset.Path), zap.Int("items", len(items)))
	return dataset.BuildLesson(items, dataset.LessonOptions{Segments: cfg.Dataset.Segments}), nil
}

// questionSource returns the lesson source, wrapped by a generating source
// when an LLM provider is configured and useLLM is set.
func questionSource(ctx context.Context, events store.EventRepo, useLLM bool) (questions.Source, error) {
	lesson, err := loadLesson()
	if err != nil {
		return nil, err
	}
	src := questions.NewLessonSource(lesson)
	if !useLLM {
		return src, nil
	}

	provider, err := llm.New(ctx, cfg.LLM, events, log)
	if err != nil {
		return nil, fmt.Errorf("LLM provider: %w", err)
	}
	if provider == nil {
		log.Warn("no LLM provider configured, using lesson questions")
		return src, nil
	}
	return questions.NewLLMSource(provider, src, cfg.Questions, log), nil
}
