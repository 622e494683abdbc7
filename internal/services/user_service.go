package services

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/aidos-dev/meetsync/internal/models"
	"github.com/aidos-dev/meetsync/pkg/apperrors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// UserService encapsulates the business logic for user accounts.
type UserService struct {
	repo UserStore
}

// NewUserService creates a new instance of UserService.
func NewUserService(repo UserStore) *UserService {
	return &UserService{repo: repo}
}

// Register creates a new account after hashing the password.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" || email == "" || password == "" {
		return nil, apperrors.InvalidArgument("name, email and password are required")
	}
	if !emailRegex.MatchString(email) {
		return nil, apperrors.InvalidArgument("invalid email format")
	}

	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Unavailable(err, "failed to look up email")
	}
	if existing != nil {
		return nil, apperrors.Conflict(nil, "email already in use")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("Password hashing failed")
		return nil, apperrors.Unavailable(err, "failed to hash password")
	}

	now := time.Now().UTC()
	user := &models.User{
		Name:           name,
		Email:          email,
		HashedPassword: string(hashed),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return nil, apperrors.Unavailable(err, "failed to register user")
	}

	logrus.WithField("user_id", created.ID.Hex()).Info("User registered")
	return created, nil
}

// Login verifies credentials and returns the account.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.Unavailable(err, "failed to look up email")
	}
	if user == nil {
		return nil, apperrors.Permission("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, apperrors.Permission("invalid email or password")
	}

	return user, nil
}

// Get fetches one user by id.
func (s *UserService) Get(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, apperrors.Unavailable(err, "failed to look up user")
	}
	if user == nil {
		return nil, apperrors.NotFound("no user with id %s", id.Hex())
	}
	return user, nil
}

// ResolveByEmail maps an email address to a user id.
func (s *UserService) ResolveByEmail(ctx context.Context, email string) (primitive.ObjectID, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return primitive.NilObjectID, apperrors.Unavailable(err, "failed to look up email")
	}
	if user == nil {
		return primitive.NilObjectID, apperrors.NotFound("no user with email %s", email)
	}
	return user.ID, nil
}

// SetCalendarFeed stores the user's iCalendar feed URL. An empty URL
// disconnects the calendar.
func (s *UserService) SetCalendarFeed(ctx context.Context, userID primitive.ObjectID, feedURL string) error {
	feedURL = strings.TrimSpace(feedURL)
	if feedURL != "" {
		parsed, err := url.Parse(feedURL)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return apperrors.InvalidArgument("calendar feed URL must be an http(s) URL")
		}
	}

	update := map[string]interface{}{
		"calendar_feed_url": feedURL,
		"updated_at":        time.Now().UTC(),
	}
	if err := s.repo.UpdateUser(ctx, userID, update); err != nil {
		return apperrors.Unavailable(err, "failed to update user")
	}

	logrus.WithField("user_id", userID.Hex()).Info("Calendar feed updated")
	return nil
}
