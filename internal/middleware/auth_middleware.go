package middleware

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// 从Authorization头里解析出有效的claims，解析不出来就返回error，要不要拦截由调用方决定
func parseAuthClaims(c *gin.Context) (jwt.MapClaims, error) {
	// 拿到http协议请求头中的Authorization字段
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return nil, errors.New("请求未包含授权令牌")
	}

	// 通常Token的格式是 "Bearer [token]"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, errors.New("授权令牌格式不正确")
	}

	tokenString := parts[1]
	secretKey := []byte(os.Getenv("JWT_SECRET_KEY"))

	// 解析Token，返回加密前的token（Header.Payload.Signature），还附带valid判断是否有效
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// 确保签名方法是对称加密族
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("非预期的签名方法")
		}
		return secretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("无效的授权令牌")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("无效的授权令牌")
	}
	return claims, nil
}

// AuthMiddleware 强制认证：改评论、删评论、发笔记这些必须是登录用户
// 流程：1、从http请求中取出"Authorization"字段 2、验证"Bearer [token]" 3、通过secretKey验证token有效性 4、若成功，从token中取出后续用到的用户信息，放入context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseAuthClaims(c)
		if err != nil {
			// 立刻调用c.Abort()，阻止后续的任何处理器（包括其他中间件和最终的handler）被执行
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		// Token验证成功！将用户信息存入Context，以便后续使用
		c.Set("userID", claims["user_id"])
		c.Set("username", claims["username"])

		// 放行，继续处理请求
		c.Next()
	}
}

// OptionalAuthMiddleware 可选认证：发评论游客也可以，带了有效token就按登录用户算，没带或者token无效就当游客放行
// 注意这里任何解析失败都不拦截，发评论这条路永远走得通
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseAuthClaims(c)
		if err == nil {
			c.Set("userID", claims["user_id"])
			c.Set("username", claims["username"])
		}
		c.Next()
	}
}
