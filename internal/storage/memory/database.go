package memory

import (
	"sort"
	"strconv"
	"sync"

	"github.com/VitaminP8/postgraph/graph/model"
)

// Database - общее in-memory хранилище для пользователей, постов и тегов.
// Связи хранятся только на стороне поста (автор и набор тегов), поэтому
// связь post-tag симметрична без дополнительной синхронизации.
type Database struct {
	mu    sync.RWMutex
	users map[int]*userRow
	posts map[int]*postRow
	tags  map[int]*tagRow

	// для хранения актуальных ID (как автоинкремент в БД)
	nextUserID int
	nextPostID int
	nextTagID  int
}

type userRow struct {
	firstName string
	lastName  string
	age       int
}

type postRow struct {
	title    string
	content  string
	authorID int
	tagIDs   []int
}

type tagRow struct {
	name string
}

func NewDatabase() *Database {
	return &Database{
		users:      make(map[int]*userRow),
		posts:      make(map[int]*postRow),
		tags:       make(map[int]*tagRow),
		nextUserID: 1,
		nextPostID: 1,
		nextTagID:  1,
	}
}

func parseID(id string) (int, bool) {
	n, err := strconv.Atoi(id)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func sortedKeys[T any](rows map[int]T) []int {
	keys := make([]int, 0, len(rows))
	for id := range rows {
		keys = append(keys, id)
	}
	sort.Ints(keys)
	return keys
}

// методы ниже вызываются под блокировкой db.mu

func (db *Database) userModel(id int) *model.User {
	row, ok := db.users[id]
	if !ok {
		return nil
	}
	return &model.User{
		ID:        strconv.Itoa(id),
		FirstName: row.firstName,
		LastName:  row.lastName,
		Age:       row.age,
	}
}

func (db *Database) postModel(id int) *model.Post {
	row, ok := db.posts[id]
	if !ok {
		return nil
	}
	return &model.Post{
		ID:       strconv.Itoa(id),
		Title:    row.title,
		Content:  row.content,
		AuthorID: strconv.Itoa(row.authorID),
	}
}

func (db *Database) tagModel(id int) *model.Tag {
	row, ok := db.tags[id]
	if !ok {
		return nil
	}
	return &model.Tag{
		ID:   strconv.Itoa(id),
		Name: row.name,
	}
}

func (db *Database) postsByAuthor(authorID int) []*model.Post {
	posts := make([]*model.Post, 0)
	for _, id := range sortedKeys(db.posts) {
		if db.posts[id].authorID == authorID {
			posts = append(posts, db.postModel(id))
		}
	}
	return posts
}

func (db *Database) postsByTag(tagID int) []*model.Post {
	posts := make([]*model.Post, 0)
	for _, id := range sortedKeys(db.posts) {
		if containsID(db.posts[id].tagIDs, tagID) {
			posts = append(posts, db.postModel(id))
		}
	}
	return posts
}

func (db *Database) tagsOfPost(postID int) []*model.Tag {
	tags := make([]*model.Tag, 0)
	row, ok := db.posts[postID]
	if !ok {
		return tags
	}
	for _, id := range row.tagIDs {
		if t := db.tagModel(id); t != nil {
			tags = append(tags, t)
		}
	}
	return tags
}

func containsID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func checkRelations(allowed []string, relations []string) error {
	for _, relation := range relations {
		if !containsString(allowed, relation) {
			return &UnknownRelationError{Relation: relation}
		}
	}
	return nil
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

type UnknownRelationError struct {
	Relation string
}

func (e *UnknownRelationError) Error() string {
	return "unknown relation " + strconv.Quote(e.Relation)
}
