package postgres

import (
	"context"
	"fmt"

	"github.com/VitaminP8/postgraph/graph/model"
	"github.com/VitaminP8/postgraph/internal/user"
	"github.com/VitaminP8/postgraph/models"
	"github.com/jinzhu/gorm"
)

var userAssociations = map[string]string{
	user.RelationPosts: "Posts",
}

type UserPostgresStorage struct{}

func NewUserPostgresStorage() *UserPostgresStorage {
	return &UserPostgresStorage{}
}

func (s *UserPostgresStorage) Find(ctx context.Context, relations ...string) ([]*model.User, error) {
	var users []models.User
	err := observe(ctx, "users.find", func() error {
		db, err := preload(DB, userAssociations, relations)
		if err != nil {
			return err
		}
		return db.Order("id").Find(&users).Error
	})
	if err != nil {
		return nil, fmt.Errorf("could not get users: %w", err)
	}

	results := make([]*model.User, 0, len(users))
	for i := range users {
		results = append(results, toUserModel(&users[i]))
	}

	return results, nil
}

func (s *UserPostgresStorage) FindOne(ctx context.Context, id string, relations ...string) (*model.User, error) {
	userID, ok := parseID(id)
	if !ok {
		return nil, nil
	}

	var u models.User
	err := observe(ctx, "users.find_one", func() error {
		db, err := preload(DB, userAssociations, relations)
		if err != nil {
			return err
		}
		return db.First(&u, userID).Error
	})
	if gorm.IsRecordNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not get user by id: %w", err)
	}

	return toUserModel(&u), nil
}

func (s *UserPostgresStorage) Create(firstName, lastName string, age int) *model.User {
	return &model.User{
		FirstName: firstName,
		LastName:  lastName,
		Age:       age,
	}
}

func (s *UserPostgresStorage) Save(ctx context.Context, users ...*model.User) ([]*model.User, error) {
	saved := make([]*model.User, 0, len(users))

	err := observe(ctx, "users.save", func() error {
		for _, u := range users {
			record := &models.User{
				FirstName: u.FirstName,
				LastName:  u.LastName,
				Age:       u.Age,
			}

			if u.ID == "" {
				if err := DB.Create(record).Error; err != nil {
					return err
				}
			} else {
				id, ok := parseID(u.ID)
				if !ok {
					return fmt.Errorf("invalid user id %q", u.ID)
				}
				record.ID = id
				err := DB.Model(record).Updates(map[string]interface{}{
					"first_name": u.FirstName,
					"last_name":  u.LastName,
					"age":        u.Age,
				}).Error
				if err != nil {
					return err
				}
			}

			result := *u
			result.ID = fmt.Sprint(record.ID)
			saved = append(saved, &result)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not save user: %w", err)
	}

	return saved, nil
}
