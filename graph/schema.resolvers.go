package graph

// This file will be automatically regenerated based on the schema, any resolver implementations
// will be copied through when generating and any unknown code will be moved to the end.
// Code generated by github.com/99designs/gqlgen version v0.17.70

import (
	"context"
	"fmt"

	"github.com/VitaminP8/postgraph/graph/generated"
	"github.com/VitaminP8/postgraph/graph/model"
	"github.com/VitaminP8/postgraph/internal/post"
	"github.com/VitaminP8/postgraph/internal/subscription"
	"github.com/VitaminP8/postgraph/internal/tag"
	"github.com/VitaminP8/postgraph/internal/user"
	"go.uber.org/zap"
)

// Posts is the resolver for the posts field.
func (r *userResolver) Posts(ctx context.Context, obj *model.User) ([]*model.Post, error) {
	return r.PostStore.Find(ctx, post.Filter{AuthorID: obj.ID})
}

// Author is the resolver for the author field.
func (r *postResolver) Author(ctx context.Context, obj *model.Post) (*model.User, error) {
	// перечитываем пост вместе с автором, уже загруженные связи не используются
	p, err := r.PostStore.FindOne(ctx, obj.ID, post.RelationAuthor)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}
	return p.Author, nil
}

// Tags is the resolver for the tags field.
func (r *postResolver) Tags(ctx context.Context, obj *model.Post) ([]*model.Tag, error) {
	return r.TagStore.Find(ctx, tag.Filter{PostID: obj.ID})
}

// Posts is the resolver for the posts field.
func (r *tagResolver) Posts(ctx context.Context, obj *model.Tag) ([]*model.Post, error) {
	return r.PostStore.Find(ctx, post.Filter{TagID: obj.ID})
}

// Authors is the resolver for the authors field.
func (r *queryResolver) Authors(ctx context.Context) ([]*model.User, error) {
	return r.UserStore.Find(ctx)
}

// AuthorsWithPosts is the resolver for the authorsWithPosts field.
func (r *queryResolver) AuthorsWithPosts(ctx context.Context) ([]*model.User, error) {
	authors, err := r.UserStore.Find(ctx, user.RelationPosts)
	if err != nil {
		return nil, err
	}

	loaded := 0
	for _, author := range authors {
		loaded += len(author.Posts)
	}
	r.logger().Debug("authors loaded with posts",
		zap.Int("authors", len(authors)),
		zap.Int("posts", loaded),
	)

	return authors, nil
}

// Author is the resolver for the author field.
func (r *queryResolver) Author(ctx context.Context, id string) (*model.User, error) {
	return r.UserStore.FindOne(ctx, id)
}

// Posts is the resolver for the posts field.
func (r *queryResolver) Posts(ctx context.Context) ([]*model.Post, error) {
	return r.PostStore.Find(ctx, post.Filter{})
}

// Tags is the resolver for the tags field.
func (r *queryResolver) Tags(ctx context.Context) ([]*model.Tag, error) {
	return r.TagStore.Find(ctx, tag.Filter{})
}

// CreatePost is the resolver for the createPost field.
func (r *mutationResolver) CreatePost(ctx context.Context, input model.CreatePostInput) (*model.Post, error) {
	author, err := r.UserStore.FindOne(ctx, input.AuthorID)
	if err != nil {
		return nil, err
	}
	if author == nil {
		r.logger().Info("post not created: author not found", zap.String("authorId", input.AuthorID))
		return nil, nil
	}

	// несуществующие теги молча отбрасываются
	tags, err := r.TagStore.Find(ctx, tag.Filter{IDs: append([]string{}, input.Tags...)})
	if err != nil {
		return nil, err
	}

	saved, err := r.PostStore.Save(ctx, r.PostStore.Create(input.Title, input.Content, author, tags))
	if err != nil {
		return nil, err
	}
	if len(saved) != 1 {
		return nil, fmt.Errorf("could not save post: expected 1 record, got %d", len(saved))
	}
	p := saved[0]

	r.logger().Info("post created",
		zap.String("id", p.ID),
		zap.String("authorId", p.AuthorID),
		zap.Int("tags", len(p.Tags)),
	)

	// уведомляем подписчиков; отсутствие подписчиков на результат не влияет
	if r.SubscriptionManager != nil {
		r.SubscriptionManager.Publish(subscription.PostAdded, p)
	}

	return p, nil
}

// PostAdded is the resolver for the postAdded field.
func (r *subscriptionResolver) PostAdded(ctx context.Context) (<-chan *model.Post, error) {
	ch, cancel := r.SubscriptionManager.Subscribe(subscription.PostAdded)

	// Горутина для отписки, когда клиент отключится
	go func() {
		<-ctx.Done()
		cancel()
	}()

	return ch, nil
}

// Mutation returns generated.MutationResolver implementation.
func (r *Resolver) Mutation() generated.MutationResolver { return &mutationResolver{r} }

// Post returns generated.PostResolver implementation.
func (r *Resolver) Post() generated.PostResolver { return &postResolver{r} }

// Query returns generated.QueryResolver implementation.
func (r *Resolver) Query() generated.QueryResolver { return &queryResolver{r} }

// Subscription returns generated.SubscriptionResolver implementation.
func (r *Resolver) Subscription() generated.SubscriptionResolver { return &subscriptionResolver{r} }

// Tag returns generated.TagResolver implementation.
func (r *Resolver) Tag() generated.TagResolver { return &tagResolver{r} }

// User returns generated.UserResolver implementation.
func (r *Resolver) User() generated.UserResolver { return &userResolver{r} }

type mutationResolver struct{ *Resolver }
type postResolver struct{ *Resolver }
type queryResolver struct{ *Resolver }
type subscriptionResolver struct{ *Resolver }
type tagResolver struct{ *Resolver }
type userResolver struct{ *Resolver }
