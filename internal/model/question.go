package model

// Difficulty enumerates question difficulty levels as delivered by the backend.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question is the backend's question record. The client never mutates it.
type Question struct {
	ID          int64      `json:"id"`
	Course      string     `json:"course"`
	Chapter     string     `json:"chapter"`
	Question    string     `json:"question"`
	OptionA     string     `json:"optionA"`
	OptionB     string     `json:"optionB"`
	OptionC     string     `json:"optionC"`
	OptionD     string     `json:"optionD"`
	Answer      string     `json:"answer"`
	Hint        string     `json:"hint"`
	Explanation string     `json:"explanation"`
	Difficulty  Difficulty `json:"difficulty"`
	CreatedAt   int64      `json:"createdAt"`
}
