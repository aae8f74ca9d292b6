package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"learnapp/internal/config"
	"learnapp/internal/models"
	"learnapp/internal/observability"
	contextutils "learnapp/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthServiceInterface defines account registration and token issuance.
type AuthServiceInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	Login(ctx context.Context, identifier, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, userID int) error
	ParseAccessToken(tokenString string) (int, error)
	Authenticate(ctx context.Context, tokenString string) (int, error)
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Email              string   `json:"email" binding:"required,email,max=255"`
	Username           string   `json:"username" binding:"required,min=3,max=50"`
	FullName           string   `json:"full_name" binding:"required,max=255"`
	Password           string   `json:"password" binding:"required,min=8,max=128"`
	GradeLevel         *string  `json:"grade_level" binding:"omitempty,max=64"`
	SubjectsOfInterest []string `json:"subjects_of_interest" binding:"omitempty,max=20,dive,max=128"`
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"`
	User         *models.User `json:"user"`
}

// AccessClaims are the claims carried by an access token.
type AccessClaims struct {
	jwt.RegisteredClaims
}

// AuthService issues and validates tokens for registered users.
type AuthService struct {
	db     *gorm.DB
	cfg    config.AuthConfig
	logger *observability.Logger
	now    func() time.Time
}

// NewAuthServiceWithLogger creates a new AuthService instance
func NewAuthServiceWithLogger(db *gorm.DB, cfg config.AuthConfig, logger *observability.Logger) *AuthService {
	return &AuthService{db: db, cfg: cfg, logger: logger, now: time.Now}
}

func (s *AuthService) bcryptCost() int {
	if s.cfg.BcryptCost < bcrypt.MinCost {
		return bcrypt.DefaultCost
	}
	return s.cfg.BcryptCost
}

// Register creates a new active account. Duplicate email or username yields RECORD_ALREADY_EXISTS.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (result0 *models.User, err error) {
	ctx, span := observability.TraceAuthFunction(ctx, "register", attribute.String("user.username", req.Username))
	defer observability.FinishSpan(span, &err)

	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)
	if !contextutils.IsValidEmail(email) {
		return nil, validationFailed("invalid email address")
	}
	if !contextutils.IsValidUsername(username) {
		return nil, validationFailed("invalid username")
	}

	var existing int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&existing).Error; err != nil {
		return nil, translateError(err, "user")
	}
	if existing > 0 {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeRecordExists, contextutils.SeverityInfo,
			"email or username already registered", "")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost())
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to hash password")
	}

	subjects := req.SubjectsOfInterest
	if subjects == nil {
		subjects = []string{}
	}
	user := &models.User{
		Email:                 email,
		Username:              username,
		FullName:              strings.TrimSpace(req.FullName),
		HashedPassword:        string(hash),
		IsActive:              true,
		GradeLevel:            req.GradeLevel,
		SubjectsOfInterest:    pq.StringArray(subjects),
		PreferredDifficulty:   models.DifficultyMedium,
		DailyStudyGoalMinutes: 60,
		LastActivity:          ptr(s.now().UTC()),
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, translateError(err, "user")
	}

	span.SetAttributes(observability.AttributeUserID(user.ID))
	s.logger.Info(ctx, "User registered", map[string]interface{}{"user_id": user.ID, "username": user.Username})
	return user, nil
}

// Login authenticates by username or email and issues a token pair.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (result0 *TokenPair, err error) {
	ctx, span := observability.TraceAuthFunction(ctx, "login")
	defer observability.FinishSpan(span, &err)

	identifier = strings.TrimSpace(identifier)
	var user models.User
	err = s.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, strings.ToLower(identifier)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, contextutils.ErrInvalidCredentials
	}
	if err != nil {
		return nil, translateError(err, "user")
	}

	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return nil, contextutils.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, contextutils.NewAppError(contextutils.ErrorCodeForbidden, contextutils.SeverityWarn,
			"account is inactive", "")
	}

	now := s.now().UTC()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_activity", now).Error; err != nil {
		s.logger.Warn(ctx, "Failed to update last activity", map[string]interface{}{"user_id": user.ID, "error": err.Error()})
	}

	var pair *TokenPair
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var issueErr error
		pair, issueErr = s.issueTokens(tx, &user)
		return issueErr
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(observability.AttributeUserID(user.ID))
	return pair, nil
}

// Refresh rotates a refresh token. The presented token is revoked exactly once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (result0 *TokenPair, err error) {
	ctx, span := observability.TraceAuthFunction(ctx, "refresh")
	defer observability.FinishSpan(span, &err)

	tokenID, err := uuid.Parse(strings.TrimSpace(refreshToken))
	if err != nil {
		return nil, contextutils.ErrSessionExpired
	}

	var pair *TokenPair
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now().UTC()
		var stored models.UserToken
		if err := tx.Where("token_id = ?", tokenID).First(&stored).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return contextutils.ErrSessionExpired
			}
			return translateError(err, "refresh token")
		}
		if !stored.IsUsable(now) {
			return contextutils.ErrSessionExpired
		}

		// Guarded revoke so two concurrent refreshes cannot both succeed.
		res := tx.Model(&models.UserToken{}).
			Where("id = ? AND revoked_at IS NULL", stored.ID).
			Update("revoked_at", now)
		if res.Error != nil {
			return translateError(res.Error, "refresh token")
		}
		if res.RowsAffected != 1 {
			return contextutils.ErrSessionExpired
		}

		var user models.User
		if err := tx.First(&user, stored.UserID).Error; err != nil {
			return translateError(err, "user")
		}
		if !user.IsActive {
			return contextutils.NewAppError(contextutils.ErrorCodeForbidden, contextutils.SeverityWarn,
				"account is inactive", "")
		}

		var issueErr error
		pair, issueErr = s.issueTokens(tx, &user)
		return issueErr
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes every outstanding refresh token of the user.
func (s *AuthService) Logout(ctx context.Context, userID int) (err error) {
	ctx, span := observability.TraceAuthFunction(ctx, "logout", observability.AttributeUserID(userID))
	defer observability.FinishSpan(span, &err)

	return revokeUserTokens(s.db.WithContext(ctx), userID, s.now().UTC())
}

func revokeUserTokens(db *gorm.DB, userID int, now time.Time) error {
	err := db.Model(&models.UserToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", now).Error
	return translateError(err, "refresh token")
}

func (s *AuthService) issueTokens(tx *gorm.DB, user *models.User) (*TokenPair, error) {
	now := s.now().UTC()
	accessTTL := s.cfg.AccessTokenTTL()

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTTL)),
			ID:        uuid.NewString(),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to sign access token")
	}

	refresh := models.UserToken{
		UserID:    user.ID,
		TokenID:   uuid.New(),
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL()),
	}
	if err := tx.Create(&refresh).Error; err != nil {
		return nil, translateError(err, "refresh token")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refresh.TokenID.String(),
		TokenType:    "bearer",
		ExpiresIn:    int(accessTTL.Seconds()),
		User:         user,
	}, nil
}

// ParseAccessToken validates an HS256 access token and returns its user id.
func (s *AuthService) ParseAccessToken(tokenString string) (int, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, contextutils.ErrSessionExpired
		}
		return 0, contextutils.ErrUnauthorized
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return 0, contextutils.ErrUnauthorized
	}
	userID, err := strconv.Atoi(claims.Subject)
	if err != nil || userID <= 0 {
		return 0, contextutils.ErrUnauthorized
	}
	return userID, nil
}

// Authenticate parses the access token and checks that its user is still active.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (result0 int, err error) {
	ctx, span := observability.TraceAuthFunction(ctx, "authenticate")
	defer observability.FinishSpan(span, &err)

	userID, err := s.ParseAccessToken(tokenString)
	if err != nil {
		return 0, err
	}

	var user models.User
	err = s.db.WithContext(ctx).Select("id", "is_active").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, contextutils.ErrUnauthorized
	}
	if err != nil {
		return 0, translateError(err, "user")
	}
	if !user.IsActive {
		return 0, contextutils.NewAppError(contextutils.ErrorCodeForbidden, contextutils.SeverityWarn,
			"account is inactive", "")
	}

	span.SetAttributes(observability.AttributeUserID(userID))
	return userID, nil
}
