package service

import (
	"context"
	"errors"

	"StudyRoom/internal/model"
	"StudyRoom/internal/pkg"
	"StudyRoom/internal/repository"
	rediscache "StudyRoom/internal/repository/redis"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	repo  repository.UserRepository
	rUser *rediscache.UserRepository
}

func NewUserService(repo repository.UserRepository) *UserService {
	return &UserService{
		repo:  repo,
		rUser: &rediscache.UserRepository{},
	}
}

func (s *UserService) Register(ctx context.Context, username, password, email string) error {
	if username == "" || password == "" {
		return errors.New("username and password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user := &model.User{
		Username: username,
		Password: string(hash),
		Email:    email,
	}
	return s.repo.Create(ctx, user)
}

func (s *UserService) Login(ctx context.Context, username, password string) (*pkg.Pair, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, errors.New("invalid password")
	}
	// token写入redis，单点登录
	token, err := pkg.GeneratePair(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.rUser.AddUserToken(ctx, user.ID, token.AccessToken); err != nil {
		return nil, err
	}
	return token, nil
}

func (s *UserService) Logout(ctx context.Context, userID uint64) error {
	return s.rUser.DeleteUserToken(ctx, userID)
}
