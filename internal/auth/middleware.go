package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// TokenFromRequest 요청에서 액세스 토큰 추출. 우선순위:
// Authorization Bearer 헤더 → access_token 쿠키 → token 쿼리 파라미터.
// 쿼리 파라미터는 브라우저 WebSocket API가 헤더를 못 붙이기 때문에 필요하다.
func TokenFromRequest(c *fiber.Ctx) string {
	if header := c.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		// 형식이 깨진 헤더는 쿠키로 폴백하지 않는다
		return ""
	}
	if token := c.Cookies("access_token"); token != "" {
		return token
	}
	return c.Query("token")
}

// RequireAuth JWT 인증 미들웨어. 검증된 클레임을 Locals에 저장한다
func RequireAuth(jwtManager *JWTManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := TokenFromRequest(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing authorization token",
			})
		}

		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			if err == ErrExpiredToken {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "token expired",
					"code":  "TOKEN_EXPIRED",
				})
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid token",
			})
		}

		c.Locals("userID", claims.UserID)
		c.Locals("email", claims.Email)
		c.Locals("name", claims.Name)
		c.Locals("claims", claims)

		return c.Next()
	}
}

// WebSocketAuth 웹소켓 업그레이드용 인증 게이트. HTTP 상태 코드로 거부하지
// 않고 항상 Next를 호출한다: 업그레이드 후 핸들러가 close code로 거부해야
// 클라이언트가 사유(재로그인 vs 보드 선택)를 구분할 수 있다. allowGuest가
// 켜져 있으면(임시 보드 모드) 토큰 없는 연결을 공유 게스트로 받는다.
func WebSocketAuth(jwtManager *JWTManager, allowGuest bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := TokenFromRequest(c); token != "" {
			if claims, err := jwtManager.ValidateAccessToken(token); err == nil {
				c.Locals("userID", claims.UserID)
				c.Locals("username", claims.Name)
			}
		} else if allowGuest {
			c.Locals("userID", int64(0))
			c.Locals("username", "guest")
		}
		return c.Next()
	}
}
