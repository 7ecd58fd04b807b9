package middleware

import (
	"encoding/json"
	"errors"
	"time"

	"bizmart-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const errorLogSize = 100

// ErrorHandler is the global error handler. It logs the failure, keeps server
// errors in the Redis error log and answers with the standard error format.
func ErrorHandler(rdb *redis.Client) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		traceID := GetTraceID(c)
		if code >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("trace_id", traceID).Str("method", c.Method()).Str("path", c.Path()).Msg("request failed")
			if rdb != nil {
				entry, _ := json.Marshal(map[string]interface{}{
					"time":     time.Now(),
					"method":   c.Method(),
					"path":     c.OriginalURL(),
					"status":   code,
					"message":  err.Error(),
					"trace_id": traceID,
				})
				ctx := c.UserContext()
				pipe := rdb.TxPipeline()
				pipe.LPush(ctx, KeyErrorLog, entry)
				pipe.LTrim(ctx, KeyErrorLog, 0, errorLogSize-1)
				if _, perr := pipe.Exec(ctx); perr != nil {
					log.Warn().Err(perr).Msg("error log push failed")
				}
			}
		}

		return response.Error(c, message, code, map[string]interface{}{})
	}
}
