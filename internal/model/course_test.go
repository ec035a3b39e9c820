package model_test

import (
	"testing"
	"time"

	"github.com/prepmitra/prepmitra-client/internal/model"
)

func TestConfigForCourse(t *testing.T) {
	cases := []struct {
		course    string
		questions int
		limit     time.Duration
	}{
		{"MSCIT", 15, 15 * time.Minute},
		{"GCC-TBC", 25, 25 * time.Minute},
	}
	for _, tc := range cases {
		cfg, err := model.ConfigForCourse(tc.course)
		if err != nil {
			t.Fatalf("%s: %v", tc.course, err)
		}
		if cfg.QuestionCount != tc.questions || cfg.TimeLimit != tc.limit {
			t.Fatalf("%s config = %+v", tc.course, cfg)
		}
	}

	if _, err := model.ConfigForCourse("TALLY"); err == nil {
		t.Fatal("expected error for unknown course")
	}
}
