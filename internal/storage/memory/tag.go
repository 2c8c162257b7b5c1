package memory

import (
	"context"
	"fmt"
	"strconv"

	"github.com/VitaminP8/postgraph/graph/model"
	"github.com/VitaminP8/postgraph/internal/tag"
)

type TagMemoryStorage struct {
	db *Database
}

func NewTagMemoryStorage(db *Database) *TagMemoryStorage {
	return &TagMemoryStorage{db: db}
}

func (s *TagMemoryStorage) Find(ctx context.Context, filter tag.Filter, relations ...string) ([]*model.Tag, error) {
	if err := checkRelations([]string{tag.RelationPosts}, relations); err != nil {
		return nil, fmt.Errorf("could not get tags: %w", err)
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var wanted map[int]struct{}
	if filter.IDs != nil {
		wanted = make(map[int]struct{}, len(filter.IDs))
		for _, id := range filter.IDs {
			// неизвестные и невалидные id молча пропускаем
			if n, ok := parseID(id); ok {
				wanted[n] = struct{}{}
			}
		}
	}

	var postTags []int
	if filter.PostID != "" {
		postID, ok := parseID(filter.PostID)
		if !ok {
			return []*model.Tag{}, nil
		}
		row, exists := s.db.posts[postID]
		if !exists {
			return []*model.Tag{}, nil
		}
		postTags = row.tagIDs
	}

	tags := make([]*model.Tag, 0)
	for _, id := range sortedKeys(s.db.tags) {
		if wanted != nil {
			if _, ok := wanted[id]; !ok {
				continue
			}
		}
		if filter.PostID != "" && !containsID(postTags, id) {
			continue
		}

		t := s.db.tagModel(id)
		if containsString(relations, tag.RelationPosts) {
			t.Posts = s.db.postsByTag(id)
		}
		tags = append(tags, t)
	}

	return tags, nil
}

func (s *TagMemoryStorage) FindOne(ctx context.Context, id string, relations ...string) (*model.Tag, error) {
	if err := checkRelations([]string{tag.RelationPosts}, relations); err != nil {
		return nil, fmt.Errorf("could not get tag by id: %w", err)
	}

	tagID, ok := parseID(id)
	if !ok {
		return nil, nil
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	t := s.db.tagModel(tagID)
	if t == nil {
		return nil, nil
	}
	if containsString(relations, tag.RelationPosts) {
		t.Posts = s.db.postsByTag(tagID)
	}

	return t, nil
}

func (s *TagMemoryStorage) Create(name string) *model.Tag {
	return &model.Tag{Name: name}
}

func (s *TagMemoryStorage) Save(ctx context.Context, tags ...*model.Tag) ([]*model.Tag, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	ids := make([]int, len(tags))
	nextID := s.db.nextTagID
	for i, t := range tags {
		if t.ID == "" {
			ids[i] = nextID
			nextID++
			continue
		}
		id, ok := parseID(t.ID)
		if !ok {
			return nil, fmt.Errorf("could not save tag: invalid tag id %q", t.ID)
		}
		if _, exists := s.db.tags[id]; !exists {
			return nil, fmt.Errorf("could not save tag: tag %s not found", t.ID)
		}
		ids[i] = id
	}

	s.db.nextTagID = nextID
	saved := make([]*model.Tag, 0, len(tags))
	for i, t := range tags {
		s.db.tags[ids[i]] = &tagRow{name: t.Name}

		result := *t
		result.ID = strconv.Itoa(ids[i])
		saved = append(saved, &result)
	}

	return saved, nil
}
