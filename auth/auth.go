package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers both unknown users and wrong passwords
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// tokenLifetime is how long an issued JWT stays valid
const tokenLifetime = 24 * time.Hour

// AuthModule issues and validates the hub's bearer tokens
type AuthModule struct {
	db        *pgxpool.Pool
	JWTSecret string
}

// NewAuthModule creates an auth module over the users table
func NewAuthModule(db *pgxpool.Pool, JWTSecret string) *AuthModule {
	return &AuthModule{db: db, JWTSecret: JWTSecret}
}

func (a *AuthModule) createUser(ctx context.Context, username, password, email string) (int, error) {
	var exists bool
	err := a.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)", username).Scan(&exists)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, errors.New("auth: username already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	var userID int
	err = a.db.QueryRow(ctx,
		"INSERT INTO users (username, password, email) VALUES ($1, $2, $3) RETURNING id",
		username, string(hashedPassword), email,
	).Scan(&userID)
	if err != nil {
		return 0, err
	}

	return userID, nil
}

func (a *AuthModule) generateJWT(userID int) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(tokenLifetime).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(a.JWTSecret))
}

func (a *AuthModule) authenticateUser(ctx context.Context, username, password string) (int, error) {
	var userID int
	var passwordHash string
	err := a.db.QueryRow(ctx, "SELECT id, password FROM users WHERE username = $1", username).Scan(&userID, &passwordHash)
	if err != nil {
		return 0, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return 0, ErrInvalidCredentials
	}

	return userID, nil
}

// Register creates a user and returns a signed token
func (a *AuthModule) Register(ctx context.Context, username, password, email string) (string, error) {
	userID, err := a.createUser(ctx, username, password, email)
	if err != nil {
		return "", err
	}
	return a.generateJWT(userID)
}

// Login authenticates a user and returns a signed token
func (a *AuthModule) Login(ctx context.Context, username, password string) (string, error) {
	userID, err := a.authenticateUser(ctx, username, password)
	if err != nil {
		return "", err
	}
	return a.generateJWT(userID)
}

// ValidateToken checks a bearer token and returns the user id it carries
func (a *AuthModule) ValidateToken(token string) (string, error) {
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("auth: unexpected signing method")
		}
		return []byte(a.JWTSecret), nil
	})
	if err != nil {
		return "", err
	}

	if claims, ok := parsedToken.Claims.(jwt.MapClaims); ok && parsedToken.Valid {
		userIDFloat, ok := claims["user_id"].(float64)
		if !ok {
			return "", errors.New("auth: invalid user_id in token")
		}
		return fmt.Sprintf("%d", int(userIDFloat)), nil
	}

	return "", errors.New("auth: invalid token")
}
