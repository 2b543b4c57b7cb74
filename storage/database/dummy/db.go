// Package dummydb provides in-memory repositories for tests and local
// development without a database.
package dummydb

import (
	"sync"

	"github.com/darasadev/darasa/core/assistant"
	"github.com/darasadev/darasa/core/calendar"
	"github.com/darasadev/darasa/core/course"
	"github.com/darasadev/darasa/core/feed"
	"github.com/darasadev/darasa/core/user"
)

type (
	DB struct {
		user         *userTable
		event        *eventTable
		course       *courseTable
		post         *postTable
		conversation *conversationTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	eventTable struct {
		sync.RWMutex
		table map[string]*calendar.Event
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*course.Course
	}

	postTable struct {
		sync.RWMutex
		table map[string]*feed.Post
	}

	conversationTable struct {
		sync.RWMutex
		table    map[string]*assistant.Conversation
		messages map[string][]assistant.Message // keyed by conversation ID
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:   &userTable{table: make(map[string]*user.User)},
		event:  &eventTable{table: make(map[string]*calendar.Event)},
		course: &courseTable{table: make(map[string]*course.Course)},
		post:   &postTable{table: make(map[string]*feed.Post)},
		conversation: &conversationTable{
			table:    make(map[string]*assistant.Conversation),
			messages: make(map[string][]assistant.Message),
		},
	}
	return db, nil
}
