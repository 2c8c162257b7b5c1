package postgres

import (
	"context"
	"fmt"

	"github.com/VitaminP8/postgraph/graph/model"
	"github.com/VitaminP8/postgraph/internal/post"
	"github.com/VitaminP8/postgraph/models"
	"github.com/jinzhu/gorm"
)

var postAssociations = map[string]string{
	post.RelationAuthor: "Author",
	post.RelationTags:   "Tags",
}

type PostPostgresStorage struct{}

func NewPostPostgresStorage() *PostPostgresStorage {
	return &PostPostgresStorage{}
}

func (s *PostPostgresStorage) Find(ctx context.Context, filter post.Filter, relations ...string) ([]*model.Post, error) {
	var posts []models.Post
	err := observe(ctx, "posts.find", func() error {
		db, err := preload(DB, postAssociations, relations)
		if err != nil {
			return err
		}

		db = db.Select("posts.*")
		if filter.IDs != nil {
			ids := parseIDs(filter.IDs)
			if len(ids) == 0 {
				return nil
			}
			db = db.Where("posts.id IN (?)", ids)
		}
		if filter.AuthorID != "" {
			authorID, ok := parseID(filter.AuthorID)
			if !ok {
				return nil
			}
			db = db.Where("posts.author_id = ?", authorID)
		}
		if filter.TagID != "" {
			tagID, ok := parseID(filter.TagID)
			if !ok {
				return nil
			}
			db = db.Joins("JOIN post_tags ON post_tags.post_id = posts.id").
				Where("post_tags.tag_id = ?", tagID)
		}

		return db.Order("posts.id").Find(&posts).Error
	})
	if err != nil {
		return nil, fmt.Errorf("could not get posts: %w", err)
	}

	results := make([]*model.Post, 0, len(posts))
	for i := range posts {
		results = append(results, toPostModel(&posts[i]))
	}

	return results, nil
}

func (s *PostPostgresStorage) FindOne(ctx context.Context, id string, relations ...string) (*model.Post, error) {
	postID, ok := parseID(id)
	if !ok {
		return nil, nil
	}

	var p models.Post
	err := observe(ctx, "posts.find_one", func() error {
		db, err := preload(DB, postAssociations, relations)
		if err != nil {
			return err
		}
		return db.First(&p, postID).Error
	})
	if gorm.IsRecordNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not get post by id: %w", err)
	}

	return toPostModel(&p), nil
}

func (s *PostPostgresStorage) Create(title, content string, author *model.User, tags []*model.Tag) *model.Post {
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

func (s *PostPostgresStorage) Save(ctx context.Context, posts ...*model.Post) ([]*model.Post, error) {
	saved := make([]*model.Post, 0, len(posts))

	err := observe(ctx, "posts.save", func() error {
		for _, p := range posts {
			record, err := toPostRecord(p)
			if err != nil {
				return err
			}

			if record.ID == 0 {
				// связи в post_tags пишутся вместе с постом, сами теги не обновляются
				if err := DB.Create(record).Error; err != nil {
					return err
				}
			} else {
				err := DB.Model(record).Updates(map[string]interface{}{
					"title":     record.Title,
					"content":   record.Content,
					"author_id": record.AuthorID,
				}).Error
				if err != nil {
					return err
				}
				if err := DB.Model(record).Association("Tags").Replace(record.Tags).Error; err != nil {
					return err
				}
			}

			result := *p
			result.ID = fmt.Sprint(record.ID)
			result.AuthorID = fmt.Sprint(record.AuthorID)
			saved = append(saved, &result)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not save post: %w", err)
	}

	return saved, nil
}

func toPostRecord(p *model.Post) (*models.Post, error) {
	authorID := p.AuthorID
	if p.Author != nil {
		authorID = p.Author.ID
	}
	author, ok := parseID(authorID)
	if !ok {
		return nil, fmt.Errorf("post must have an author")
	}

	record := &models.Post{
		Title:    p.Title,
		Content:  p.Content,
		AuthorID: author,
		Tags:     make([]models.Tag, 0, len(p.Tags)),
	}
	if p.ID != "" {
		id, ok := parseID(p.ID)
		if !ok {
			return nil, fmt.Errorf("invalid post id %q", p.ID)
		}
		record.ID = id
	}

	// дубликаты пар post-tag не допускаются
	seen := make(map[uint]struct{}, len(p.Tags))
	for _, t := range p.Tags {
		tagID, ok := parseID(t.ID)
		if !ok {
			return nil, fmt.Errorf("tag %q is not saved", t.Name)
		}
		if _, dup := seen[tagID]; dup {
			continue
		}
		seen[tagID] = struct{}{}
		record.Tags = append(record.Tags, models.Tag{Model: gorm.Model{ID: tagID}})
	}

	return record, nil
}
