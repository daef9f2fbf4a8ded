package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"ardhi/contexts/identity-access/identity-service/domain/entities"
	domainerrors "ardhi/contexts/identity-access/identity-service/domain/errors"
	"ardhi/contexts/identity-access/identity-service/ports"
)

type userModel struct {
	UserID       string    `gorm:"column:user_id;primaryKey"`
	Username     string    `gorm:"column:username;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash"`
	Role         string    `gorm:"column:role"`
	County       string    `gorm:"column:county"`
	Registry     string    `gorm:"column:registry"`
	Active       bool      `gorm:"column:active"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (userModel) TableName() string {
	return "users"
}

// Repository persists users in PostgreSQL through gorm.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&userModel{})
}

func (r *Repository) CreateUser(ctx context.Context, user entities.User) error {
	model := toUserModel(user)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrUsernameTaken
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, userID string) (entities.User, error) {
	var model userModel
	err := r.db.WithContext(ctx).First(&model, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	if err != nil {
		return entities.User{}, fmt.Errorf("get user: %w", err)
	}
	return fromUserModel(model), nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (entities.User, error) {
	var model userModel
	err := r.db.WithContext(ctx).First(&model, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.User{}, domainerrors.ErrUserNotFound
	}
	if err != nil {
		return entities.User{}, fmt.Errorf("get user by username: %w", err)
	}
	return fromUserModel(model), nil
}

func (r *Repository) ListUsers(ctx context.Context, filter ports.UserFilter) ([]entities.User, error) {
	query := r.db.WithContext(ctx).Model(&userModel{})
	if filter.Registry != "" {
		query = query.Where("registry = ?", filter.Registry)
	}
	if filter.Role != "" {
		query = query.Where("role = ?", string(filter.Role))
	}

	var models []userModel
	if err := query.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]entities.User, 0, len(models))
	for _, model := range models {
		users = append(users, fromUserModel(model))
	}
	return users, nil
}

func (r *Repository) SetUserActive(ctx context.Context, userID string, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("user_id = ?", userID).
		Update("active", active)
	if result.Error != nil {
		return fmt.Errorf("set user active: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrUserNotFound
	}
	return nil
}

func toUserModel(user entities.User) userModel {
	return userModel{
		UserID:       user.UserID,
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		County:       user.County,
		Registry:     user.Registry,
		Active:       user.Active,
		CreatedAt:    user.CreatedAt,
	}
}

func fromUserModel(model userModel) entities.User {
	role, _ := entities.ParseRole(model.Role)
	return entities.User{
		UserID:       model.UserID,
		Username:     model.Username,
		PasswordHash: model.PasswordHash,
		County:       model.County,
		Registry:     model.Registry,
		Role:         role,
		Active:       model.Active,
		CreatedAt:    model.CreatedAt,
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
