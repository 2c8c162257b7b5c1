package post

import (
	"context"

	"github.com/VitaminP8/postgraph/graph/model"
)

const (
	RelationAuthor = "author"
	RelationTags   = "tags"
)

// Filter - условия выборки постов. Пустые поля не участвуют в фильтрации.
// IDs == nil - без ограничения по id, пустой не-nil срез - ни одного поста.
type Filter struct {
	IDs      []string
	AuthorID string
	TagID    string
}

type PostStorage interface {
	Find(ctx context.Context, filter Filter, relations ...string) ([]*model.Post, error)
	// FindOne возвращает nil, nil если пост не найден
	FindOne(ctx context.Context, id string, relations ...string) (*model.Post, error)
	// Create собирает несохраненный пост с автором и тегами
	Create(title, content string, author *model.User, tags []*model.Tag) *model.Post
	Save(ctx context.Context, posts ...*model.Post) ([]*model.Post, error)
}
