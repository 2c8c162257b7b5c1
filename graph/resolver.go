package graph

//go:generate go run github.com/99designs/gqlgen@v0.17.70 generate

import (
	"github.com/VitaminP8/postgraph/internal/post"
	"github.com/VitaminP8/postgraph/internal/subscription"
	"github.com/VitaminP8/postgraph/internal/tag"
	"github.com/VitaminP8/postgraph/internal/user"
	"go.uber.org/zap"
)

// Resolver служит корневой точкой для всех резолверов.
// Здесь внедряются хранилища, канал событий и логгер.
type Resolver struct {
	UserStore           user.UserStorage
	PostStore           post.PostStorage
	TagStore            tag.TagStorage
	SubscriptionManager subscription.Manager
	Logger              *zap.Logger
}

func (r *Resolver) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.L()
	}
	return r.Logger
}
