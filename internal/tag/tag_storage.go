package tag

import (
	"context"

	"github.com/VitaminP8/postgraph/graph/model"
)

// RelationPosts - посты, помеченные тегом (Tag.Posts)
const RelationPosts = "posts"

// Filter - условия выборки тегов.
// IDs == nil - без ограничения по id, пустой не-nil срез - ни одного тега.
// Неизвестные id молча пропускаются.
type Filter struct {
	IDs    []string
	PostID string
}

type TagStorage interface {
	Find(ctx context.Context, filter Filter, relations ...string) ([]*model.Tag, error)
	// FindOne возвращает nil, nil если тег не найден
	FindOne(ctx context.Context, id string, relations ...string) (*model.Tag, error)
	Create(name string) *model.Tag
	Save(ctx context.Context, tags ...*model.Tag) ([]*model.Tag, error)
}
