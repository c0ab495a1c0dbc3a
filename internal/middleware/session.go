package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medrecords-api/internal/service/audit"
	"github.com/jwalitptl/medrecords-api/pkg/auth"
)

const ContextActorID = "actor_id"

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// Session records who is calling for the audit trail. It never rejects a
// request: a missing or invalid token just leaves the actor unknown. Must
// run after RequestID.
func Session(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		info := audit.RequestInfo{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			RequestID: c.GetString(ContextRequestID),
		}

		if token, ok := bearerToken(c.GetHeader("Authorization")); ok && tokens != nil {
			claims, err := tokens.Parse(token)
			if err != nil {
				log.Ctx(c.Request.Context()).Debug().Err(err).Msg("ignoring invalid bearer token")
			} else {
				actor := claims.UserID
				info.ActorID = &actor
				c.Set(ContextActorID, actor.String())
			}
		}

		c.Request = c.Request.WithContext(audit.WithRequestInfo(c.Request.Context(), info))
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
