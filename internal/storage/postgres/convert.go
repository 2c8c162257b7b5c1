package postgres

import (
	"fmt"
	"strconv"

	"github.com/VitaminP8/postgraph/graph/model"
	"github.com/VitaminP8/postgraph/models"
	"github.com/jinzhu/gorm"
)

// parseID переводит GraphQL ID в первичный ключ. Невалидный id - это "не найдено", а не ошибка.
func parseID(id string) (uint, bool) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func parseIDs(ids []string) []uint {
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if n, ok := parseID(id); ok {
			result = append(result, n)
		}
	}
	return result
}

// preload включает жадную загрузку связей; associations: имя связи -> поле модели gorm
func preload(db *gorm.DB, associations map[string]string, relations []string) (*gorm.DB, error) {
	for _, relation := range relations {
		field, ok := associations[relation]
		if !ok {
			return nil, fmt.Errorf("unknown relation %q", relation)
		}
		db = db.Preload(field)
	}
	return db, nil
}

func toUserModel(u *models.User) *model.User {
	result := &model.User{
		ID:        fmt.Sprint(u.ID),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Age:       u.Age,
	}
	if u.Posts != nil {
		result.Posts = make([]*model.Post, 0, len(u.Posts))
		for i := range u.Posts {
			result.Posts = append(result.Posts, toPostModel(&u.Posts[i]))
		}
	}
	return result
}

func toPostModel(p *models.Post) *model.Post {
	result := &model.Post{
		ID:       fmt.Sprint(p.ID),
		Title:    p.Title,
		Content:  p.Content,
		AuthorID: fmt.Sprint(p.AuthorID),
	}
	if p.Author != nil {
		result.Author = toUserModel(p.Author)
	}
	if p.Tags != nil {
		result.Tags = make([]*model.Tag, 0, len(p.Tags))
		for i := range p.Tags {
			result.Tags = append(result.Tags, toTagModel(&p.Tags[i]))
		}
	}
	return result
}

func toTagModel(t *models.Tag) *model.Tag {
	result := &model.Tag{
		ID:   fmt.Sprint(t.ID),
		Name: t.Name,
	}
	if t.Posts != nil {
		result.Posts = make([]*model.Post, 0, len(t.Posts))
		for i := range t.Posts {
			result.Posts = append(result.Posts, toPostModel(&t.Posts[i]))
		}
	}
	return result
}
