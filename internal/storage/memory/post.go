package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/VitaminP8/postgraph/graph/model"
	"github.com/VitaminP8/postgraph/internal/post"
)

var postRelations = []string{post.RelationAuthor, post.RelationTags}

type PostMemoryStorage struct {
	db *Database
}

func NewPostMemoryStorage(db *Database) *PostMemoryStorage {
	return &PostMemoryStorage{db: db}
}

func (s *PostMemoryStorage) Find(ctx context.Context, filter post.Filter, relations ...string) ([]*model.Post, error) {
	if err := checkRelations(postRelations, relations); err != nil {
		return nil, fmt.Errorf("could not get posts: %w", err)
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	var wanted map[int]struct{}
	if filter.IDs != nil {
		wanted = make(map[int]struct{}, len(filter.IDs))
		for _, id := range filter.IDs {
			if n, ok := parseID(id); ok {
				wanted[n] = struct{}{}
			}
		}
	}

	authorID, tagID := 0, 0
	if filter.AuthorID != "" {
		var ok bool
		if authorID, ok = parseID(filter.AuthorID); !ok {
			return []*model.Post{}, nil
		}
	}
	if filter.TagID != "" {
		var ok bool
		if tagID, ok = parseID(filter.TagID); !ok {
			return []*model.Post{}, nil
		}
	}

	posts := make([]*model.Post, 0)
	for _, id := range sortedKeys(s.db.posts) {
		row := s.db.posts[id]
		if wanted != nil {
			if _, ok := wanted[id]; !ok {
				continue
			}
		}
		if authorID != 0 && row.authorID != authorID {
			continue
		}
		if tagID != 0 && !containsID(row.tagIDs, tagID) {
			continue
		}

		posts = append(posts, s.withRelations(id, relations))
	}

	return posts, nil
}

func (s *PostMemoryStorage) FindOne(ctx context.Context, id string, relations ...string) (*model.Post, error) {
	if err := checkRelations(postRelations, relations); err != nil {
		return nil, fmt.Errorf("could not get post by id: %w", err)
	}

	postID, ok := parseID(id)
	if !ok {
		return nil, nil
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	if _, exists := s.db.posts[postID]; !exists {
		return nil, nil
	}

	return s.withRelations(postID, relations), nil
}

// withRelations вызывается под блокировкой
func (s *PostMemoryStorage) withRelations(id int, relations []string) *model.Post {
	p := s.db.postModel(id)
	if containsString(relations, post.RelationAuthor) {
		p.Author = s.db.userModel(s.db.posts[id].authorID)
	}
	if containsString(relations, post.RelationTags) {
		p.Tags = s.db.tagsOfPost(id)
	}
	return p
}

func (s *PostMemoryStorage) Create(title, content string, author *model.User, tags []*model.Tag) *model.Post {
	p := &model.Post{
		Title:   title,
		Content: content,
		Author:  author,
		Tags:    tags,
	}
	if author != nil {
		p.AuthorID = author.ID
	}
	return p
}

func (s *PostMemoryStorage) Save(ctx context.Context, posts ...*model.Post) ([]*model.Post, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	// сначала проверяем весь пакет, записываем только если ошибок нет
	ids := make([]int, len(posts))
	rows := make([]*postRow, len(posts))
	nextID := s.db.nextPostID
	for i, p := range posts {
		row, err := s.toRow(p)
		if err != nil {
			return nil, fmt.Errorf("could not save post: %w", err)
		}

		if p.ID == "" {
			ids[i] = nextID
			nextID++
		} else {
			id, ok := parseID(p.ID)
			if !ok {
				return nil, fmt.Errorf("could not save post: invalid post id %q", p.ID)
			}
			if _, exists := s.db.posts[id]; !exists {
				return nil, fmt.Errorf("could not save post: post %s not found", p.ID)
			}
			ids[i] = id
		}
		rows[i] = row
	}

	s.db.nextPostID = nextID
	saved := make([]*model.Post, 0, len(posts))
	for i, p := range posts {
		s.db.posts[ids[i]] = rows[i]

		result := *p
		result.ID = strconv.Itoa(ids[i])
		result.AuthorID = strconv.Itoa(rows[i].authorID)
		saved = append(saved, &result)
	}

	return saved, nil
}

// toRow проверяет, что автор и теги уже сохранены; вызывается под блокировкой
func (s *PostMemoryStorage) toRow(p *model.Post) (*postRow, error) {
	authorID := p.AuthorID
	if p.Author != nil {
		authorID = p.Author.ID
	}
	author, ok := parseID(authorID)
	if !ok {
		return nil, errors.New("post must have an author")
	}
	if _, exists := s.db.users[author]; !exists {
		return nil, fmt.Errorf("author %s not found", authorID)
	}

	row := &postRow{
		title:    p.Title,
		content:  p.Content,
		authorID: author,
		tagIDs:   make([]int, 0, len(p.Tags)),
	}
	for _, t := range p.Tags {
		tagID, ok := parseID(t.ID)
		if !ok {
			return nil, fmt.Errorf("tag %q is not saved", t.Name)
		}
		if _, exists := s.db.tags[tagID]; !exists {
			return nil, fmt.Errorf("tag %s not found", t.ID)
		}
		// дубликаты пар post-tag не допускаются
		if !containsID(row.tagIDs, tagID) {
			row.tagIDs = append(row.tagIDs, tagID)
		}
	}
	sort.Ints(row.tagIDs)

	return row, nil
}
