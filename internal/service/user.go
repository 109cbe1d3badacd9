package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jjikmuck/jjikmuck/backend/internal/models"
	"github.com/jjikmuck/jjikmuck/backend/internal/types"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email already exists")
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserNotFound is returned for an unknown or malformed user id.
	ErrUserNotFound = errors.New("user not found")
	// ErrWeakPassword is returned for passwords shorter than MinPasswordLength.
	ErrWeakPassword = errors.New("password is too short")
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 12

// UserTokenTTL is the lifetime of a login token.
const UserTokenTTL = time.Hour

// UserService registers accounts, issues login tokens and stores health profiles.
type UserService struct {
	db     *gorm.DB
	tokens *TokenService
	cost   int
}

// NewUserService creates a user service. tokens may be nil, which makes Login fail.
func NewUserService(db *gorm.DB, tokens *TokenService) *UserService {
	return &UserService{db: db, tokens: tokens, cost: bcrypt.DefaultCost}
}

// Register creates an account with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, req types.RegisterRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	if email == "" || strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name and email are required", ErrInvalidProfile)
	}
	if len(req.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:              strings.TrimSpace(req.Name),
		Email:             email,
		PasswordHash:      string(hash),
		Allergies:         models.JSONBStringArray{},
		Diseases:          models.JSONBStringArray{},
		SpecialConditions: models.JSONBStringArray{},
	}
	if err := db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login checks the password and returns a user token.
func (s *UserService) Login(ctx context.Context, req types.LoginRequest) (string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(req.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", ErrInvalidCredentials
	}

	if s.tokens == nil {
		return "", fmt.Errorf("token service is not configured")
	}
	token, err := s.tokens.GenerateUserToken(user.ID, UserTokenTTL)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}

// GetUser loads an account by id.
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	id, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return nil, ErrUserNotFound
	}

	var user models.User
	err = s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// UpdateProfile applies a partial update. The merged profile must pass ValidateProfile.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req types.UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name != "" {
			user.Name = name
		}
	}
	if req.Height != nil {
		user.Height = req.Height
	}
	if req.Weight != nil {
		user.Weight = req.Weight
	}
	if req.AgeRange != nil {
		user.AgeRange = strings.TrimSpace(*req.AgeRange)
	}
	if req.Gender != nil {
		user.Gender = strings.ToLower(strings.TrimSpace(*req.Gender))
	}
	if req.DietType != nil {
		user.DietType = strings.ToLower(strings.TrimSpace(*req.DietType))
	}
	if req.Allergies != nil {
		user.Allergies = storedSet(*req.Allergies)
	}
	if req.Diseases != nil {
		user.Diseases = storedSet(*req.Diseases)
	}
	if req.SpecialConditions != nil {
		user.SpecialConditions = storedSet(*req.SpecialConditions)
	}

	if err := ValidateProfile(ProfileFromUser(user)); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// StoredProfile returns the analysis profile saved for a user.
func (s *UserService) StoredProfile(ctx context.Context, userID string) (*types.UserProfile, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := ProfileFromUser(user)
	return &profile, nil
}

// ProfileFromUser converts the stored columns into an analysis profile.
func ProfileFromUser(u *models.User) types.UserProfile {
	return types.UserProfile{
		Height:            u.Height,
		Weight:            u.Weight,
		AgeRange:          u.AgeRange,
		Gender:            u.Gender,
		Allergies:         append([]string{}, u.Allergies...),
		Diseases:          append([]string{}, u.Diseases...),
		SpecialConditions: append([]string{}, u.SpecialConditions...),
		DietType:          u.DietType,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func storedSet(values []string) models.JSONBStringArray {
	out := types.NormalizeSet(values)
	if out == nil {
		return models.JSONBStringArray{}
	}
	return models.JSONBStringArray(out)
}
