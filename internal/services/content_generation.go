package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	types "github.com/yungbote/coursify-backend/internal/domain"
	"github.com/yungbote/coursify-backend/internal/observability"
	"github.com/yungbote/coursify-backend/internal/platform/llm"
	"github.com/yungbote/coursify-backend/internal/platform/logger"
)

type GenerationSource string

const (
	GenerationSourceProvider GenerationSource = "provider"
	GenerationSourceTemplate GenerationSource = "template"
)

const (
	courseGenTemperature = 0.7
	courseGenMaxTokens   = 4000
	quizGenTemperature   = 0.7
	quizGenMaxTokens     = 2000

	quizContentPrefix  = 1000
	quizQuestionCount  = 5
	quizOptionCount    = 4
	defaultLessonMins  = 10
	templateLessonMins = 15
)

type LessonSpec struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Type     string `json:"type"`
	Duration *int   `json:"duration"`
}

type ModuleSpec struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Lessons     []LessonSpec `json:"lessons"`
}

// CourseStructure is the generated outline: a title, a description and
// ordered modules of ordered lessons.
type CourseStructure struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Modules     []ModuleSpec `json:"modules"`
}

// CourseGeneration is the outcome of one generation. Source tells whether
// the provider answered or the template was used; Model is empty for the
// template.
type CourseGeneration struct {
	Source    GenerationSource
	Structure CourseStructure
	Model     string
}

type QuizGeneration struct {
	Source    GenerationSource
	Questions []types.QuizQuestion
	Model     string
}

// ContentGenerator never fails: a missing provider or any provider error is
// answered from the template.
type ContentGenerator interface {
	GenerateCourseStructure(ctx context.Context, topic, category, difficulty string) CourseGeneration
	GenerateQuiz(ctx context.Context, lessonTitle, lessonContent string) QuizGeneration
}

type contentGenerator struct {
	log      *logger.Logger
	provider llm.Provider
	metrics  *observability.Metrics
}

// NewContentGenerator takes a nil provider when no credentials are
// configured. The caller must pass a true nil, not a typed nil pointer.
func NewContentGenerator(log *logger.Logger, provider llm.Provider, metrics *observability.Metrics) ContentGenerator {
	return &contentGenerator{
		log:      log.With("service", "ContentGenerator"),
		provider: provider,
		metrics:  metrics,
	}
}

const courseSystemPrompt = "You are an expert curriculum designer who creates comprehensive, well-structured online courses."

const quizSystemPrompt = "You are an educational assessment expert who creates effective quiz questions."

var lessonSpecSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []any{"title", "content", "type", "duration"},
	"properties": map[string]any{
		"title":    map[string]any{"type": "string"},
		"content":  map[string]any{"type": "string"},
		"type":     map[string]any{"type": "string", "description": "article, video or quiz"},
		"duration": map[string]any{"type": "integer", "description": "estimated minutes"},
	},
}

var courseStructureSchema = &llm.Schema{
	Name:        "course_structure",
	Description: "Course outline with ordered modules and lessons",
	Definition: map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"title", "description", "modules"},
		"properties": map[string]any{
			"title":       map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"modules": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"title", "description", "lessons"},
					"properties": map[string]any{
						"title":       map[string]any{"type": "string"},
						"description": map[string]any{"type": "string"},
						"lessons": map[string]any{
							"type":  "array",
							"items": lessonSpecSchema,
						},
					},
				},
			},
		},
	},
}

var quizSchema = &llm.Schema{
	Name:        "lesson_quiz",
	Description: "Multiple-choice questions for one lesson",
	Definition: map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"questions"},
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []any{"question", "options", "correctAnswer", "explanation"},
					"properties": map[string]any{
						"question":      map[string]any{"type": "string"},
						"options":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"correctAnswer": map[string]any{"type": "integer", "description": "index into options, 0-3"},
						"explanation":   map[string]any{"type": "string"},
					},
				},
			},
		},
	},
}

func (g *contentGenerator) GenerateCourseStructure(ctx context.Context, topic, category, difficulty string) CourseGeneration {
	ctx, span := observability.StartSpan(ctx, "content.generate_course",
		attribute.String("course.category", category),
		attribute.String("course.difficulty", difficulty),
	)
	defer span.End()

	if g.provider == nil {
		span.SetAttributes(attribute.String("generation.source", string(GenerationSourceTemplate)))
		g.metrics.IncGeneration("course", string(GenerationSourceTemplate))
		return CourseGeneration{Source: GenerationSourceTemplate, Structure: TemplateCourseStructure(topic, category, difficulty)}
	}

	req := llm.UserPrompt(courseSystemPrompt, coursePrompt(topic, category, difficulty))
	req.Schema = courseStructureSchema
	req.Temperature = courseGenTemperature
	req.MaxTokens = courseGenMaxTokens

	resp, err := g.call(ctx, req)
	if err == nil {
		var structure CourseStructure
		if err = json.Unmarshal(resp.Content, &structure); err == nil {
			err = checkCourseStructure(structure)
		}
		if err == nil {
			span.SetAttributes(attribute.String("generation.source", string(GenerationSourceProvider)))
			g.metrics.IncGeneration("course", string(GenerationSourceProvider))
			return CourseGeneration{Source: GenerationSourceProvider, Structure: structure, Model: resp.Model}
		}
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "provider generation failed")
	span.SetAttributes(attribute.String("generation.source", string(GenerationSourceTemplate)))
	g.log.Warn("Course generation fell back to template", "error", err, "model", g.provider.ModelID())
	g.metrics.IncGeneration("course", string(GenerationSourceTemplate))
	return CourseGeneration{Source: GenerationSourceTemplate, Structure: TemplateCourseStructure(topic, category, difficulty)}
}

func (g *contentGenerator) GenerateQuiz(ctx context.Context, lessonTitle, lessonContent string) QuizGeneration {
	ctx, span := observability.StartSpan(ctx, "content.generate_quiz")
	defer span.End()

	if g.provider == nil {
		g.metrics.IncGeneration("quiz", string(GenerationSourceTemplate))
		return QuizGeneration{Source: GenerationSourceTemplate, Questions: TemplateQuiz(lessonTitle)}
	}

	req := llm.UserPrompt(quizSystemPrompt, quizPrompt(lessonTitle, lessonContent))
	req.Schema = quizSchema
	req.Temperature = quizGenTemperature
	req.MaxTokens = quizGenMaxTokens

	resp, err := g.call(ctx, req)
	if err == nil {
		var questions []types.QuizQuestion
		if questions, err = parseQuizQuestions(resp.Content); err == nil {
			g.metrics.IncGeneration("quiz", string(GenerationSourceProvider))
			return QuizGeneration{Source: GenerationSourceProvider, Questions: questions, Model: resp.Model}
		}
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "provider generation failed")
	g.log.Warn("Quiz generation fell back to template", "error", err, "model", g.provider.ModelID())
	g.metrics.IncGeneration("quiz", string(GenerationSourceTemplate))
	return QuizGeneration{Source: GenerationSourceTemplate, Questions: TemplateQuiz(lessonTitle)}
}

// call issues one provider request and records latency and token usage.
func (g *contentGenerator) call(ctx context.Context, req llm.Request) (*llm.Response, error) {
	start := time.Now()
	resp, err := g.provider.Generate(ctx, req)
	if err != nil {
		g.metrics.ObserveLLMRequest(g.provider.ModelID(), llmErrorStatus(err), time.Since(start), 0, 0)
		return nil, err
	}
	g.metrics.ObserveLLMRequest(resp.Model, "ok", time.Since(start), resp.Usage.InputTokens, resp.Usage.OutputTokens)
	return resp, nil
}

func llmErrorStatus(err error) string {
	var rl *llm.ErrRateLimit
	var inv *llm.ErrInvalidResponse
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &rl):
		return "rate_limited"
	case errors.As(err, &inv):
		return "invalid_response"
	default:
		return "error"
	}
}

func coursePrompt(topic, category, difficulty string) string {
	moduleHint, lessonHint := "3-4", "4-5"
	switch strings.ToLower(strings.TrimSpace(difficulty)) {
	case types.DifficultyIntermediate:
		moduleHint, lessonHint = "5-6", "5-6"
	case types.DifficultyAdvanced:
		moduleHint, lessonHint = "7-8", "6-7"
	}

	var b strings.Builder
	b.WriteString("Create a comprehensive online course structure for the following:\n\n")
	fmt.Fprintf(&b, "Topic: %s\n", topic)
	fmt.Fprintf(&b, "Category: %s\n", category)
	fmt.Fprintf(&b, "Difficulty Level: %s\n\n", difficulty)
	fmt.Fprintf(&b, "Generate a course with %s modules. Each module should have %s lessons.\n", moduleHint, lessonHint)
	b.WriteString("For each lesson provide a title, a detailed content outline (3-5 paragraphs), ")
	b.WriteString("a type (article, video or quiz) and an estimated duration in minutes.\n\n")
	b.WriteString("Return JSON in this shape:\n")
	b.WriteString(`{"title": "Course Title", "description": "Course description", "modules": [{"title": "Module Title", "description": "Module description", "lessons": [{"title": "Lesson Title", "content": "Lesson content outline", "type": "article", "duration": 15}]}]}`)
	return b.String()
}

func quizPrompt(lessonTitle, lessonContent string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create %d multiple-choice quiz questions based on this lesson:\n\n", quizQuestionCount)
	fmt.Fprintf(&b, "Title: %s\n", lessonTitle)
	fmt.Fprintf(&b, "Content: %s\n\n", truncateRunes(lessonContent, quizContentPrefix))
	fmt.Fprintf(&b, "Each question needs %d plausible options, the index of the correct option and a detailed explanation. ", quizOptionCount)
	b.WriteString("Range from basic recall to application-level thinking.\n\n")
	b.WriteString(`Return JSON in this shape: {"questions": [{"question": "...", "options": ["A", "B", "C", "D"], "correctAnswer": 0, "explanation": "..."}]}`)
	return b.String()
}

func checkCourseStructure(s CourseStructure) error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("generated course has no title")
	}
	if len(s.Modules) == 0 {
		return fmt.Errorf("generated course has no modules")
	}
	for i, m := range s.Modules {
		if len(m.Lessons) == 0 {
			return fmt.Errorf("generated module %d has no lessons", i)
		}
	}
	return nil
}

// parseQuizQuestions accepts a bare array or {"questions": [...]}. Malformed
// questions are dropped; fewer than five usable questions is an error and
// extras are cut.
func parseQuizQuestions(raw json.RawMessage) ([]types.QuizQuestion, error) {
	var candidates []types.QuizQuestion
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &candidates); err != nil {
			return nil, fmt.Errorf("decode quiz questions: %w", err)
		}
	} else {
		var wrapped struct {
			Questions []types.QuizQuestion `json:"questions"`
		}
		if err := json.Unmarshal([]byte(trimmed), &wrapped); err != nil {
			return nil, fmt.Errorf("decode quiz questions: %w", err)
		}
		candidates = wrapped.Questions
	}

	valid := make([]types.QuizQuestion, 0, quizQuestionCount)
	for _, q := range candidates {
		if !validQuizQuestion(q) {
			continue
		}
		valid = append(valid, q)
		if len(valid) == quizQuestionCount {
			break
		}
	}
	if len(valid) < quizQuestionCount {
		return nil, fmt.Errorf("expected %d valid quiz questions, got %d", quizQuestionCount, len(valid))
	}
	return valid, nil
}

func validQuizQuestion(q types.QuizQuestion) bool {
	if strings.TrimSpace(q.Question) == "" || len(q.Options) != quizOptionCount {
		return false
	}
	for _, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return false
		}
	}
	return q.CorrectAnswer >= 0 && q.CorrectAnswer < quizOptionCount
}

type templateShape struct {
	modules int
	lessons int
}

var templateShapes = map[string]templateShape{
	types.DifficultyBeginner:     {modules: 3, lessons: 4},
	types.DifficultyIntermediate: {modules: 5, lessons: 5},
	types.DifficultyAdvanced:     {modules: 7, lessons: 6},
}

// TemplateCourseStructure builds the deterministic fallback outline.
// Unknown difficulties use the beginner shape.
func TemplateCourseStructure(topic, category, difficulty string) CourseStructure {
	shape, ok := templateShapes[strings.ToLower(strings.TrimSpace(difficulty))]
	if !ok {
		shape = templateShapes[types.DifficultyBeginner]
	}

	modules := make([]ModuleSpec, shape.modules)
	for i := range modules {
		lessons := make([]LessonSpec, shape.lessons)
		for j := range lessons {
			n := j + 1
			lessonType := types.LessonTypeArticle
			if j == shape.lessons-1 {
				lessonType = types.LessonTypeQuiz
			}
			mins := templateLessonMins
			lessons[j] = LessonSpec{
				Title:    fmt.Sprintf("Lesson %d: %s Fundamentals %d", n, topic, n),
				Content:  templateLessonContent(n, topic),
				Type:     lessonType,
				Duration: &mins,
			}
		}
		modules[i] = ModuleSpec{
			Title:       fmt.Sprintf("Module %d: %s - Part %d", i+1, topic, i+1),
			Description: fmt.Sprintf("Explore key aspects of %s in this module.", topic),
			Lessons:     lessons,
		}
	}

	return CourseStructure{
		Title:       fmt.Sprintf("Complete %s Course", topic),
		Description: fmt.Sprintf("Master %s with this %s-level course designed for %s professionals.", topic, difficulty, category),
		Modules:     modules,
	}
}

func templateLessonContent(n int, topic string) string {
	return fmt.Sprintf("# Lesson %d\n\n"+
		"This lesson covers essential concepts in %s.\n\n"+
		"## Learning Objectives\n"+
		"- Understand core principles\n"+
		"- Apply knowledge practically\n"+
		"- Build foundational skills\n\n"+
		"## Key Concepts\n"+
		"Detailed content about %s will be covered here.", n, topic, topic)
}

// TemplateQuiz is the fixed three-question fallback.
func TemplateQuiz(lessonTitle string) []types.QuizQuestion {
	return []types.QuizQuestion{
		{
			Question:      fmt.Sprintf("What is the main focus of \"%s\"?", lessonTitle),
			Options:       []string{"Core concepts and fundamentals", "Advanced techniques only", "Historical background", "Future trends"},
			CorrectAnswer: 0,
			Explanation:   "This lesson primarily focuses on fundamental concepts and core principles.",
		},
		{
			Question:      "What is the best approach to learning this material?",
			Options:       []string{"Passive reading only", "Active practice and application", "Memorization", "Skipping to advanced topics"},
			CorrectAnswer: 1,
			Explanation:   "Active practice and real-world application are most effective for learning.",
		},
		{
			Question:      "How does this lesson contribute to your overall learning?",
			Options:       []string{"Standalone information", "Builds on previous lessons and prepares for future ones", "Optional material", "Review of basics only"},
			CorrectAnswer: 1,
			Explanation:   "Each lesson builds progressively on previous knowledge.",
		},
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
