package database

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/SamuelOshin/mockbox-api/internal/domain/model"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("usuário não encontrado")
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	ErrUserExists         = errors.New("usuário já existe")
)

type UserRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewUserRepository(db *gorm.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

// CreateUser registra um novo usuário com a senha em hash bcrypt
func (r *UserRepository) CreateUser(ctx context.Context, username, email, password, role string) (*model.User, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.UserEntity{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	entity := &model.UserEntity{
		ID:       uuid.New().String(),
		Username: username,
		Email:    email,
		Password: string(hash),
		Role:     role,
	}

	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserExists
		}
		r.logger.Error("falha ao criar usuário", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	return &model.User{
		ID:       entity.ID,
		Username: entity.Username,
		Role:     entity.Role,
		Email:    entity.Email,
	}, nil
}

// GetUserByCredentials autentica um usuário por username e senha
func (r *UserRepository) GetUserByCredentials(username, password string) (*model.User, error) {
	var user model.UserEntity

	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		r.logger.Error("falha ao buscar usuário", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &model.User{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
		Email:    user.Email,
	}, nil
}

// GetUserByID obtém um usuário pelo identificador
func (r *UserRepository) GetUserByID(id string) (*model.User, error) {
	var user model.UserEntity
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return &model.User{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
		Email:    user.Email,
	}, nil
}
