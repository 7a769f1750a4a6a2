package interceptor

import (
	"context"
	"crypto/subtle"
	"net"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"probaho-server/internal/infrastructure/config"
	otelinfra "probaho-server/internal/infrastructure/observability/otel"
)

const apiKeyMetadata = "x-api-key"

// publicServices APIキーなしで呼べるサービスの接頭辞
var publicServices = []string{
	"/grpc.health.v1.Health/",
	"/grpc.reflection.",
}

// isPublicMethod ヘルスチェック・リフレクションかどうか
func isPublicMethod(fullMethod string) bool {
	for _, prefix := range publicServices {
		if strings.HasPrefix(fullMethod, prefix) {
			return true
		}
	}
	return false
}

// APIKeyInterceptor APIキー認証インターセプター
func APIKeyInterceptor(cfg *config.AdminAPIConfig, logger *otelinfra.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if !isPublicMethod(info.FullMethod) {
			if err := authorize(ctx, cfg, logger); err != nil {
				return nil, err
			}
		}
		return handler(ctx, req)
	}
}

// APIKeyStreamInterceptor ストリーム用のAPIキー認証インターセプター
func APIKeyStreamInterceptor(cfg *config.AdminAPIConfig, logger *otelinfra.Logger) grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if !isPublicMethod(info.FullMethod) {
			if err := authorize(ss.Context(), cfg, logger); err != nil {
				return err
			}
		}
		return handler(srv, ss)
	}
}

func authorize(ctx context.Context, cfg *config.AdminAPIConfig, logger *otelinfra.Logger) error {
	// 管理APIが無効化されている場合はエラー
	if !cfg.Enabled {
		logger.Warn(ctx, "Admin API is disabled", nil)
		return status.Error(codes.PermissionDenied, "admin API is disabled")
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		logger.Warn(ctx, "Missing metadata", nil)
		return status.Error(codes.Unauthenticated, "missing metadata")
	}

	apiKeys := md.Get(apiKeyMetadata)
	if len(apiKeys) == 0 || apiKeys[0] == "" {
		logger.Warn(ctx, "Missing X-API-Key metadata", nil)
		return status.Error(codes.Unauthenticated, "missing X-API-Key metadata")
	}

	if subtle.ConstantTimeCompare([]byte(apiKeys[0]), []byte(cfg.APIKey)) != 1 {
		logger.Warn(ctx, "Invalid API key", nil)
		return status.Error(codes.Unauthenticated, "invalid API key")
	}

	// IP制限のチェック（設定されている場合）
	if len(cfg.AllowedIPs) > 0 {
		clientIP := getClientIPFromMetadata(md)
		if clientIP != "" && !isIPAllowed(clientIP, cfg.AllowedIPs) {
			logger.Warn(ctx, "IP address not allowed", map[string]interface{}{
				"ip": clientIP,
			})
			return status.Error(codes.PermissionDenied, "IP address not allowed")
		}
	}
	return nil
}

// getClientIPFromMetadata メタデータからクライアントのIPアドレスを取得
func getClientIPFromMetadata(md metadata.MD) string {
	if forwardedFor := md.Get("x-forwarded-for"); len(forwardedFor) > 0 {
		// カンマ区切りの最初のIPを取得
		ips := strings.Split(forwardedFor[0], ",")
		return strings.TrimSpace(ips[0])
	}

	if realIP := md.Get("x-real-ip"); len(realIP) > 0 {
		return realIP[0]
	}

	return ""
}

// isIPAllowed IPアドレスが許可リスト（IPまたはCIDR）に含まれているか
func isIPAllowed(ip string, allowedIPs []string) bool {
	parsed := net.ParseIP(ip)
	for _, allowed := range allowedIPs {
		if ip == allowed {
			return true
		}
		if parsed == nil || !strings.Contains(allowed, "/") {
			continue
		}
		if _, network, err := net.ParseCIDR(allowed); err == nil && network.Contains(parsed) {
			return true
		}
	}
	return false
}
