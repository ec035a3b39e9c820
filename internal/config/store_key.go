package config

import (
	"fmt"
)

type StoreKeyStruct struct{}

func NewStoreKeyStruct() *StoreKeyStruct {
	return &StoreKeyStruct{}
}

// QuestionsKey returns the store key for a course+chapter question list cache.
func (r *StoreKeyStruct) QuestionsKey(course, chapter string) string {
	return fmt.Sprintf("practice:cache:%s:%s", course, chapter)
}

// QuestionsPrefix returns the prefix covering every cached question list.
func (r *StoreKeyStruct) QuestionsPrefix() string {
	return "practice:cache:"
}

// BookmarksKey returns the store key for the bookmarked-question list cache.
func (r *StoreKeyStruct) BookmarksKey() string {
	return "practice:bookmarks"
}

// ProgressKey returns the store key for a course+chapter progress cache.
func (r *StoreKeyStruct) ProgressKey(course, chapter string) string {
	return fmt.Sprintf("practice:progress:%s:%s", course, chapter)
}

// ProgressPrefix returns the prefix covering every cached progress summary.
func (r *StoreKeyStruct) ProgressPrefix() string {
	return "practice:progress:"
}

// OutboxKey returns the store key for the pending-mutation outbox queue.
func (r *StoreKeyStruct) OutboxKey() string {
	return "practice:outbox"
}

// SessionTokenKey returns the store key for the persisted backend token.
func (r *StoreKeyStruct) SessionTokenKey() string {
	return "auth:session_token"
}

var StoreKey = NewStoreKeyStruct()
