package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/wleydkb/TravelProjectBackEnd/internal/domain"
)

// UserService is the identity collaborator: account registration and JWT
// issuance for the booking-scoped routes.
type UserService struct {
	users    domain.UserRepository
	signKey  []byte
	tokenTTL time.Duration

	now func() time.Time
}

func NewUserService(users domain.UserRepository, signKey []byte, tokenTTL time.Duration) *UserService {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &UserService{users: users, signKey: signKey, tokenTTL: tokenTTL, now: time.Now}
}

func (s *UserService) Register(ctx context.Context, fullName, email, password string) (domain.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" || password == "" {
		return domain.User{}, fmt.Errorf("%w: full name, email and password are required", domain.ErrInvalidInput)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return domain.User{}, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	u := domain.User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         "User",
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.Insert(ctx, &u); err != nil {
		return domain.User{}, err
	}
	u.PasswordHash = ""
	return u, nil
}

// Login returns a signed bearer token whose subject is the numeric user id.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", domain.ErrInvalidCredentials
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(u.ID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
}

func (s *UserService) GetUser(ctx context.Context, id int64) (domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	u.PasswordHash = ""
	return u, nil
}

// UpdateUser replaces the profile fields; the email stays unique across
// accounts.
func (s *UserService) UpdateUser(ctx context.Context, id int64, fullName, email string) (domain.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" {
		return domain.User{}, fmt.Errorf("%w: full name and email are required", domain.ErrInvalidInput)
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if email != u.Email {
		if other, err := s.users.GetByEmail(ctx, email); err == nil && other.ID != id {
			return domain.User{}, domain.ErrEmailTaken
		} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, err
		}
	}

	u.FullName = fullName
	u.Email = email
	if err := s.users.Update(ctx, &u); err != nil {
		return domain.User{}, err
	}
	u.PasswordHash = ""
	return u, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) (bool, error) {
	return s.users.Delete(ctx, id)
}

// UserPage is one page of the user listing plus the unpaged total.
type UserPage struct {
	Users    []domain.User
	Page     int
	PageSize int
	Total    int
}

func (s *UserService) ListUsers(ctx context.Context, page, pageSize int) (UserPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	users, err := s.users.List(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return UserPage{}, err
	}
	total, err := s.users.Count(ctx)
	if err != nil {
		return UserPage{}, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return UserPage{Users: users, Page: page, PageSize: pageSize, Total: total}, nil
}
