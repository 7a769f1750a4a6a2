package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"probaho-server/internal/infrastructure/config"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
)

// userIDClaim ユーザーIDを入れるクレーム名
const userIDClaim = "user_id"

var (
	// ErrUserIDRequired ユーザーIDが空
	ErrUserIDRequired = errors.New("user_id is required")
	// ErrInvalidToken トークンが不正または期限切れ
	ErrInvalidToken = errors.New("invalid or expired token")
)

// AuthApplicationService 認証アプリケーションサービス
type AuthApplicationService struct {
	jwtConfig *config.JWTConfig
	logger    *otelinfra.Logger
	now       func() time.Time
}

// NewAuthApplicationService 新しいAuthApplicationServiceを作成
func NewAuthApplicationService(jwtConfig *config.JWTConfig, logger *otelinfra.Logger) *AuthApplicationService {
	return &AuthApplicationService{
		jwtConfig: jwtConfig,
		logger:    logger,
		now:       time.Now,
	}
}

// GenerateToken 台帳ユーザー用のJWTトークンを生成
func (s *AuthApplicationService) GenerateToken(ctx context.Context, req *GenerateTokenRequest) (*GenerateTokenResponse, error) {
	tracer := otel.Tracer("auth-service")
	ctx, span := tracer.Start(ctx, "AuthApplicationService.GenerateToken")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
	)

	if req.UserID == "" {
		err := ErrUserIDRequired
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn(ctx, "User ID is required", nil)
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(s.jwtConfig.Expiration)

	claims := jwt.MapClaims{
		userIDClaim: req.UserID,
		"sub":       req.UserID,
		"iss":       s.jwtConfig.Issuer,
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error(ctx, "Failed to generate token", err, map[string]interface{}{
			"user_id": req.UserID,
		})
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info(ctx, "Token generated successfully", map[string]interface{}{
		"user_id":    req.UserID,
		"expires_at": expiresAt.Unix(),
	})

	return &GenerateTokenResponse{
		Token:     tokenString,
		ExpiresIn: int64(s.jwtConfig.Expiration.Seconds()),
		TokenType: "Bearer",
		ExpiresAt: time.Unix(expiresAt.Unix(), 0).UTC(),
	}, nil
}

// ParseToken トークンを検証してクレームを返す
// HMAC以外の署名・発行者の不一致・期限切れ・user_id欠落はErrInvalidToken
func (s *AuthApplicationService) ParseToken(ctx context.Context, tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.jwtConfig.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.jwtConfig.Issuer))
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.jwtConfig.Secret), nil
	}, opts...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, ok := claims[userIDClaim].(string)
	if !ok || userID == "" {
		s.logger.Warn(ctx, "Missing user_id in token claims", nil)
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidToken, userIDClaim)
	}

	result := &Claims{UserID: userID}
	if iss, err := claims.GetIssuer(); err == nil {
		result.Issuer = iss
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		result.ExpiresAt = exp.Time
	}
	return result, nil
}
