package middlewares

import (
	"net/http"
	"strings"

	"bitbucket.org/mmdatafocus/checklist_backend/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware parses a Bearer token when one is present and attaches the
// employee id to the request context. Requests without a token pass through;
// a malformed or invalid token is rejected outright.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")

		if auth == "" {
			c.Next()
			return
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "No token"})
			c.Abort()
			return
		}
		auth = auth[len(bearer):]

		validate, err := utils.JwtValidate(auth)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Invalid token"})
			c.Abort()
			return
		}

		customClaim, _ := validate.Claims.(*utils.JwtCustomClaim)

		ctx := utils.SetTokenInContext(c.Request.Context(), auth)
		ctx = utils.SetEmployeeIdInContext(ctx, customClaim.EmpId)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
