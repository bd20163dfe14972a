package auth

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/yomishelf/yomishelf/pkg/errcodes"
	"github.com/yomishelf/yomishelf/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing.
	BcryptCost = 12
	// TokenExpiry is how long JWT tokens are valid.
	TokenExpiry = 7 * 24 * time.Hour
)

// JWTClaims represents the claims in a JWT token.
type JWTClaims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service handles authentication operations.
type Service struct {
	db        *bun.DB
	jwtSecret []byte
}

// NewService creates a new auth service.
func NewService(db *bun.DB, jwtSecret string) *Service {
	return &Service{
		db:        db,
		jwtSecret: []byte(jwtSecret),
	}
}

// CountUsers returns the total number of users.
func (s *Service) CountUsers(ctx context.Context) (int, error) {
	count, err := s.db.NewSelect().Model((*models.User)(nil)).Count(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return count, nil
}

// CreateUser creates a user with a bcrypt-hashed password.
func (s *Service) CreateUser(ctx context.Context, username, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	now := time.Now()
	user := &models.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		Username:     strings.TrimSpace(username),
		PasswordHash: string(hash),
	}
	_, err = s.db.NewInsert().Model(user).Returning("*").Exec(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, errcodes.Conflict("Username")
		}
		return nil, errors.WithStack(err)
	}
	return user, nil
}

// Authenticate validates credentials and returns the user if valid.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Where("u.username = ? COLLATE NOCASE", username).
		Scan(ctx)
	if err != nil {
		return nil, errcodes.Unauthorized("Invalid username or password")
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return nil, errcodes.Unauthorized("Invalid username or password")
	}

	return user, nil
}

// GenerateToken creates a new JWT token for the user.
func (s *Service) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", errors.WithStack(err)
	}

	return signedToken, nil
}

// ValidateToken validates a JWT token and returns the claims.
func (s *Service) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// GetUserByID retrieves a user by ID.
func (s *Service) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	user := &models.User{}
	err := s.db.NewSelect().
		Model(user).
		Where("u.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("User")
		}
		return nil, errors.WithStack(err)
	}
	return user, nil
}
