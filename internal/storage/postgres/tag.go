package postgres

import (
	"context"
	"fmt"

	"github.com/VitaminP8/postgraph/graph/model"
	"github.com/VitaminP8/postgraph/internal/tag"
	"github.com/VitaminP8/postgraph/models"
	"github.com/jinzhu/gorm"
)

var tagAssociations = map[string]string{
	tag.RelationPosts: "Posts",
}

type TagPostgresStorage struct{}

func NewTagPostgresStorage() *TagPostgresStorage {
	return &TagPostgresStorage{}
}

func (s *TagPostgresStorage) Find(ctx context.Context, filter tag.Filter, relations ...string) ([]*model.Tag, error) {
	var tags []models.Tag
	err := observe(ctx, "tags.find", func() error {
		db, err := preload(DB, tagAssociations, relations)
		if err != nil {
			return err
		}

		db = db.Select("tags.*")
		if filter.IDs != nil {
			ids := parseIDs(filter.IDs)
			if len(ids) == 0 {
				return nil
			}
			db = db.Where("tags.id IN (?)", ids)
		}
		if filter.PostID != "" {
			postID, ok := parseID(filter.PostID)
			if !ok {
				return nil
			}
			db = db.Joins("JOIN post_tags ON post_tags.tag_id = tags.id").
				Where("post_tags.post_id = ?", postID)
		}

		return db.Order("tags.id").Find(&tags).Error
	})
	if err != nil {
		return nil, fmt.Errorf("could not get tags: %w", err)
	}

	results := make([]*model.Tag, 0, len(tags))
	for i := range tags {
		results = append(results, toTagModel(&tags[i]))
	}

	return results, nil
}

func (s *TagPostgresStorage) FindOne(ctx context.Context, id string, relations ...string) (*model.Tag, error) {
	tagID, ok := parseID(id)
	if !ok {
		return nil, nil
	}

	var t models.Tag
	err := observe(ctx, "tags.find_one", func() error {
		db, err := preload(DB, tagAssociations, relations)
		if err != nil {
			return err
		}
		return db.First(&t, tagID).Error
	})
	if gorm.IsRecordNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not get tag by id: %w", err)
	}

	return toTagModel(&t), nil
}

func (s *TagPostgresStorage) Create(name string) *model.Tag {
	return &model.Tag{Name: name}
}

func (s *TagPostgresStorage) Save(ctx context.Context, tags ...*model.Tag) ([]*model.Tag, error) {
	saved := make([]*model.Tag, 0, len(tags))

	err := observe(ctx, "tags.save", func() error {
		for _, t := range tags {
			record := &models.Tag{Name: t.Name}

			if t.ID == "" {
				if err := DB.Create(record).Error; err != nil {
					return err
				}
			} else {
				id, ok := parseID(t.ID)
				if !ok {
					return fmt.Errorf("invalid tag id %q", t.ID)
				}
				record.ID = id
				if err := DB.Model(record).Update("name", t.Name).Error; err != nil {
					return err
				}
			}

			result := *t
			result.ID = fmt.Sprint(record.ID)
			saved = append(saved, &result)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not save tag: %w", err)
	}

	return saved, nil
}
