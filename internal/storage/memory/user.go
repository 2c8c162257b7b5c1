package memory

import (
	"context"
	"fmt"
	"strconv"

	"github.com/VitaminP8/postgraph/graph/model"
	"github.com/VitaminP8/postgraph/internal/user"
)

type UserMemoryStorage struct {
	db *Database
}

func NewUserMemoryStorage(db *Database) *UserMemoryStorage {
	return &UserMemoryStorage{db: db}
}

func (s *UserMemoryStorage) Find(ctx context.Context, relations ...string) ([]*model.User, error) {
	if err := checkRelations([]string{user.RelationPosts}, relations); err != nil {
		return nil, fmt.Errorf("could not get users: %w", err)
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	users := make([]*model.User, 0, len(s.db.users))
	for _, id := range sortedKeys(s.db.users) {
		u := s.db.userModel(id)
		if containsString(relations, user.RelationPosts) {
			u.Posts = s.db.postsByAuthor(id)
		}
		users = append(users, u)
	}

	return users, nil
}

func (s *UserMemoryStorage) FindOne(ctx context.Context, id string, relations ...string) (*model.User, error) {
	if err := checkRelations([]string{user.RelationPosts}, relations); err != nil {
		return nil, fmt.Errorf("could not get user by id: %w", err)
	}

	userID, ok := parseID(id)
	if !ok {
		return nil, nil
	}

	s.db.mu.RLock()
	defer s.db.mu.RUnlock()

	u := s.db.userModel(userID)
	if u == nil {
		return nil, nil
	}
	if containsString(relations, user.RelationPosts) {
		u.Posts = s.db.postsByAuthor(userID)
	}

	return u, nil
}

func (s *UserMemoryStorage) Create(firstName, lastName string, age int) *model.User {
	return &model.User{
		FirstName: firstName,
		LastName:  lastName,
		Age:       age,
	}
}

func (s *UserMemoryStorage) Save(ctx context.Context, users ...*model.User) ([]*model.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	// пакет сохраняется целиком или не сохраняется вовсе
	ids := make([]int, len(users))
	nextID := s.db.nextUserID
	for i, u := range users {
		if u.ID == "" {
			ids[i] = nextID
			nextID++
			continue
		}
		id, ok := parseID(u.ID)
		if !ok {
			return nil, fmt.Errorf("could not save user: invalid user id %q", u.ID)
		}
		if _, exists := s.db.users[id]; !exists {
			return nil, fmt.Errorf("could not save user: user %s not found", u.ID)
		}
		ids[i] = id
	}

	s.db.nextUserID = nextID
	saved := make([]*model.User, 0, len(users))
	for i, u := range users {
		s.db.users[ids[i]] = &userRow{
			firstName: u.FirstName,
			lastName:  u.LastName,
			age:       u.Age,
		}

		result := *u
		result.ID = strconv.Itoa(ids[i])
		saved = append(saved, &result)
	}

	return saved, nil
}
