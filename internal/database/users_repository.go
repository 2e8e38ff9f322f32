package database

import (
	"context"
	"milk2meat/internal/models"
)

func (g *GormRepository) FindUserLoginCredentials(ctx context.Context, email string, user *models.User) error {
	return g.DB.
		WithContext(ctx).
		Model(models.User{}).
		Where("email = ?", email).
		Take(user).
		Error
}

func (g *GormRepository) FindUserById(ctx context.Context, id uint, user *models.User) error {
	return g.DB.
		WithContext(ctx).
		Take(user, id).
		Error
}

func (g *GormRepository) FindFirstSuperuser(ctx context.Context, user *models.User) error {
	return g.DB.
		WithContext(ctx).
		Where("is_superuser = ?", true).
		Order("id").
		First(user).
		Error
}

func (g *GormRepository) CreateUser(ctx context.Context, user *models.User) error {
	return g.DB.
		WithContext(ctx).
		Create(user).
		Error
}
