package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/jairathnishant/MentorMe-AI/internal/logger"
	"github.com/jairathnishant/MentorMe-AI/internal/repos"
	"github.com/jairathnishant/MentorMe-AI/internal/types"
	"github.com/jairathnishant/MentorMe-AI/internal/utils"
)

type JWTClaims struct {
	jwt.RegisteredClaims
}

// TokenPair is what a successful verify or refresh hands back.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthService implements the simulated OTP login: a code is issued per
// phone number, bcrypt-hashed at rest, and exchanged for a JWT pair.
// There is no SMS gateway; in dev mode the code is logged.
type AuthService interface {
	RequestOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, code, name string, language types.Language) (*types.User, TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
	Logout(ctx context.Context, accessToken string) error
	ParseAccessToken(tokenString string) (uuid.UUID, error)
}

type authService struct {
	db        *gorm.DB
	log       *logger.Logger
	userRepo  repos.UserRepo
	tokenRepo repos.UserTokenRepo
	otpRepo   repos.OTPChallengeRepo

	jwtSecretKey string
	accessTTL    time.Duration
	refreshTTL   time.Duration
	otpTTL       time.Duration
	devLogOTP    bool
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	tokenRepo repos.UserTokenRepo,
	otpRepo repos.OTPChallengeRepo,
) (AuthService, error) {
	serviceLog := log.With("service", "AuthService")

	secret := utils.GetEnv("JWT_SECRET_KEY", "", serviceLog)
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("missing env var JWT_SECRET_KEY")
	}

	return &authService{
		db:           db,
		log:          serviceLog,
		userRepo:     userRepo,
		tokenRepo:    tokenRepo,
		otpRepo:      otpRepo,
		jwtSecretKey: secret,
		accessTTL:    time.Duration(utils.GetEnvAsInt("ACCESS_TTL_MINUTES", 60, serviceLog)) * time.Minute,
		refreshTTL:   time.Duration(utils.GetEnvAsInt("REFRESH_TTL_HOURS", 720, serviceLog)) * time.Hour,
		otpTTL:       time.Duration(utils.GetEnvAsInt("OTP_TTL_SECONDS", 300, serviceLog)) * time.Second,
		devLogOTP:    utils.GetEnvAsBool("AUTH_DEV_LOG_OTP", true, serviceLog),
	}, nil
}

func (as *authService) RequestOTP(ctx context.Context, phone string) error {
	phone = normalizePhone(phone)
	if phone == "" {
		return fmt.Errorf("phone number required")
	}

	code, err := generateOTPCode()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash otp: %w", err)
	}

	if _, err := as.otpRepo.Create(ctx, nil, &types.OTPChallenge{
		ID:        uuid.New(),
		Phone:     phone,
		CodeHash:  string(hash),
		ExpiresAt: time.Now().Add(as.otpTTL),
	}); err != nil {
		return fmt.Errorf("store otp challenge: %w", err)
	}

	if as.devLogOTP {
		as.log.Info("OTP issued (dev mode, no SMS gateway)", "phone", phone, "code", code)
	}
	return nil
}

func (as *authService) VerifyOTP(ctx context.Context, phone, code, name string, language types.Language) (*types.User, TokenPair, error) {
	phone = normalizePhone(phone)
	if phone == "" || strings.TrimSpace(code) == "" {
		return nil, TokenPair{}, fmt.Errorf("phone and code required")
	}

	var user *types.User
	var pair TokenPair
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		challenge, err := as.otpRepo.LatestActive(ctx, tx, phone, time.Now())
		if err != nil {
			return fmt.Errorf("load otp challenge: %w", err)
		}
		if challenge == nil {
			return fmt.Errorf("no active code for this number, request a new one")
		}
		if bcrypt.CompareHashAndPassword([]byte(challenge.CodeHash), []byte(code)) != nil {
			return fmt.Errorf("invalid code")
		}
		if err := as.otpRepo.MarkConsumed(ctx, tx, challenge.ID); err != nil {
			return fmt.Errorf("consume otp challenge: %w", err)
		}

		user, err = as.userRepo.GetByPhone(ctx, tx, phone)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if user == nil {
			if language == "" {
				language = types.LanguageEnglish
			}
			user, err = as.userRepo.Create(ctx, tx, &types.User{
				ID:       uuid.New(),
				Phone:    phone,
				Name:     strings.TrimSpace(name),
				Language: language,
			})
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
		}

		pair, err = as.issueTokens(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, TokenPair{}, err
	}
	return user, pair, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return TokenPair{}, fmt.Errorf("refresh token required")
	}

	var pair TokenPair
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := as.tokenRepo.GetByRefreshToken(ctx, tx, refreshToken)
		if err != nil {
			return fmt.Errorf("load refresh token: %w", err)
		}
		if existing == nil {
			return fmt.Errorf("unknown refresh token")
		}
		if existing.ExpiresAt.Before(time.Now()) {
			_ = as.tokenRepo.DeleteByUser(ctx, tx, existing.UserID)
			return fmt.Errorf("refresh token expired")
		}

		user, err := as.userRepo.GetByID(ctx, tx, existing.UserID)
		if err != nil {
			return fmt.Errorf("load user for refresh: %w", err)
		}
		if user == nil {
			return fmt.Errorf("no user for refresh token")
		}

		if err := as.tokenRepo.DeleteByUser(ctx, tx, user.ID); err != nil {
			return fmt.Errorf("rotate tokens: %w", err)
		}
		pair, err = as.issueTokens(ctx, tx, user)
		return err
	})
	if err != nil {
		return TokenPair{}, err
	}
	return pair, nil
}

func (as *authService) Logout(ctx context.Context, accessToken string) error {
	token, err := as.tokenRepo.GetByAccessToken(ctx, nil, accessToken)
	if err != nil {
		return fmt.Errorf("load token: %w", err)
	}
	if token == nil {
		return nil
	}
	return as.tokenRepo.DeleteByUser(ctx, nil, token.UserID)
}

func (as *authService) issueTokens(ctx context.Context, tx *gorm.DB, user *types.User) (TokenPair, error) {
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.jwtSecretKey))
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	pair := TokenPair{
		AccessToken:  accessToken,
		RefreshToken: uuid.New().String(),
	}
	if _, err := as.tokenRepo.Create(ctx, tx, &types.UserToken{
		ID:           uuid.New(),
		UserID:       user.ID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    time.Now().Add(as.refreshTTL),
	}); err != nil {
		return TokenPair{}, fmt.Errorf("store token pair: %w", err)
	}
	return pair, nil
}

func (as *authService) ParseAccessToken(tokenString string) (uuid.UUID, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return uuid.Nil, fmt.Errorf("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user id in token: %w", err)
	}
	return userID, nil
}

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func normalizePhone(phone string) string {
	var sb strings.Builder
	for i, r := range strings.TrimSpace(phone) {
		if r >= '0' && r <= '9' || (r == '+' && i == 0) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
