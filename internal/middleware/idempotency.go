package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/JoaquinRodriguez332/gesticom/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
)

// Idempotency rejects a repeated Idempotency-Key from the same user for 24h.
// The key is claimed before the handler runs and released when the request
// fails, so a failed sale can be retried with the same key. Requests without
// the header pass through, as do all requests while Redis is unreachable.
func Idempotency(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" || rdb == nil {
			c.Next()
			return
		}
		if len(key) > 128 {
			c.AbortWithStatusJSON(http.StatusBadRequest, apierror.New("Idempotency-Key demasiado largo"))
			return
		}
		var userID uint
		if claims := GetClaims(c); claims != nil {
			userID = claims.UserID
		}
		redisKey := fmt.Sprintf("idem:%d:%s", userID, key)
		ctx := c.Request.Context()

		claimed, err := rdb.SetNX(ctx, redisKey, "pending", idempotencyTTL).Result()
		if err != nil {
			log.Warn().Err(err).Str("request_id", c.GetString(RequestIDKey)).Msg("idempotency: redis unavailable, skipping check")
			c.Next()
			return
		}
		if !claimed {
			c.AbortWithStatusJSON(http.StatusConflict, apierror.New("Solicitud duplicada: esta operación ya fue procesada"))
			return
		}

		c.Next()

		// The client may be gone by now; the key must still be settled.
		ctx = context.WithoutCancel(ctx)
		if c.Writer.Status() >= http.StatusBadRequest {
			if err := rdb.Del(ctx, redisKey).Err(); err != nil {
				log.Warn().Err(err).Str("key", redisKey).Msg("idempotency: release failed")
			}
			return
		}
		if err := rdb.SetXX(ctx, redisKey, "done", redis.KeepTTL).Err(); err != nil {
			log.Warn().Err(err).Str("key", redisKey).Msg("idempotency: mark done failed")
		}
	}
}
