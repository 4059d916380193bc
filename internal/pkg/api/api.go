package api

import "fmt"

// multipart form parameter names for the feedback endpoint
const (
	// PrmAudio is the recorded audio file part
	PrmAudio = "audio"
	// PrmTone is the selected coaching tone
	PrmTone = "tone"
	// PrmCategory is the lesson category slug
	PrmCategory = "categoryId"
	// PrmModule is the module number within the category
	PrmModule = "moduleId"
	// PrmLesson is the lesson level number within the module
	PrmLesson = "lessonId"
)

// FeedbackResult is the response of POST /api/feedback.
// The full feedback detail is fetched separately by ID
type FeedbackResult struct {
	Success        bool   `json:"success"`
	SessionID      string `json:"sessionId"`
	PracticePrompt string `json:"practice_prompt"`
}

// IntroInput is the request of POST /api/lesson-intro
type IntroInput struct {
	Tone     string `json:"tone"`
	Category string `json:"categoryId"`
	Module   int    `json:"moduleId"`
	Lesson   int    `json:"lessonId"`
}

// IntroResult is the response of POST /api/lesson-intro
type IntroResult struct {
	AudioBase64     string `json:"audioBase64"`
	Transcript      string `json:"transcript"`
	LessonTitle     string `json:"lessonTitle"`
	ModuleTitle     string `json:"moduleTitle"`
	PracticePrompt  string `json:"practicePrompt"`
	PracticeExample string `json:"practiceExample"`
}

// LessonKey identifies one lesson by (category, module, level)
type LessonKey struct {
	Category string `json:"categoryId"`
	Module   int    `json:"moduleId"`
	Lesson   int    `json:"lessonId"`
}

func (k LessonKey) String() string {
	return fmt.Sprintf("%s/%d/%d", k.Category, k.Module, k.Lesson)
}

// ErrLessonNotFound indicates that no lesson row matched the key.
// It carries the attempted lookup key for diagnosis
type ErrLessonNotFound struct {
	Key LessonKey
}

func (e *ErrLessonNotFound) Error() string {
	return "lesson not found: " + e.Key.String()
}
