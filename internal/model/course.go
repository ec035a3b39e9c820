package model

import (
	"fmt"
	"time"
)

// CourseConfig fixes the exam shape for a course. The question count and the
// time budget are deterministic per course and are not negotiated with the
// backend at start time.
type CourseConfig struct {
	Course        string
	QuestionCount int
	TimeLimit     time.Duration
}

// courseCatalog is the fixed course table. One minute per question.
var courseCatalog = map[string]CourseConfig{
	"MSCIT":   {Course: "MSCIT", QuestionCount: 15, TimeLimit: 15 * time.Minute},
	"GCC-TBC": {Course: "GCC-TBC", QuestionCount: 25, TimeLimit: 25 * time.Minute},
}

// ConfigForCourse resolves a course identifier against the catalog.
func ConfigForCourse(course string) (CourseConfig, error) {
	cfg, ok := courseCatalog[course]
	if !ok {
		return CourseConfig{}, fmt.Errorf("unknown course %q", course)
	}
	return cfg, nil
}

// KnownCourses lists the catalog courses, for validation and UI pickers.
func KnownCourses() []string {
	return []string{"MSCIT", "GCC-TBC"}
}
