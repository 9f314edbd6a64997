package models

import "time"

type PracticeTest struct {
	Index        int       `json:"index"`
	Title        string    `json:"title"`
	AnswerKey    []string  `json:"answerKey"`
	QuestionURLs []string  `json:"questionURLs"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Subjects a SubjectTest may belong to.
var Subjects = []string{
	"Mathematics",
	"Reading Comprehension",
	"Logic",
	"Critical Thinking",
	"Numerical Reasoning",
}

func IsKnownSubject(s string) bool {
	for _, v := range Subjects {
		if v == s {
			return true
		}
	}
	return false
}

type SubjectTest struct {
	Subject      string    `json:"subject"`
	Index        int       `json:"index"`
	Topic        string    `json:"topic"`
	AnswerKey    []string  `json:"answerKey"`
	QuestionURLs []string  `json:"questionURLs"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PracticeTestResult — результат одного из четырёх пробных тестов.
type PracticeTestResult struct {
	TestNumber     int       `json:"testNumber"`
	CorrectAnswers int       `json:"correctAnswers"`
	WrongAnswers   int       `json:"wrongAnswers"`
	EmptyAnswers   int       `json:"emptyAnswers"`
	Score          float64   `json:"score"`
	Date           time.Time `json:"date"`
}

const (
	MinPracticeTestNumber = 1
	MaxPracticeTestNumber = 4
)
