package user

import (
	"context"

	"github.com/VitaminP8/postgraph/graph/model"
)

// RelationPosts - посты автора (User.Posts)
const RelationPosts = "posts"

type UserStorage interface {
	// Find возвращает всех пользователей, relations - связи для жадной загрузки
	Find(ctx context.Context, relations ...string) ([]*model.User, error)
	// FindOne возвращает nil, nil если пользователь не найден
	FindOne(ctx context.Context, id string, relations ...string) (*model.User, error)
	// Create только собирает объект, в хранилище ничего не пишет
	Create(firstName, lastName string, age int) *model.User
	Save(ctx context.Context, users ...*model.User) ([]*model.User, error)
}
