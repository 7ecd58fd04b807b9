package middleware

import (
	"encoding/json"
	"time"

	authsvc "bizmart-backend/internal/application/auth"
	"bizmart-backend/internal/domain"
	"bizmart-backend/internal/interfaces/view"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SessionConfig for the Redis-backed session cookie.
type SessionConfig struct {
	AllowCrossSiteDev bool
	IsProduction      bool
}

const (
	SessionCookieName  = "bizmart.sid"
	SessionRedisPrefix = "session:"
	sessionMaxAge      = 24 * time.Hour

	flashKey = "_flash"

	localSessionData   = "session_data"
	localSessionID     = "session_id"
	localSessionPrev   = "session_prev"
	localSessionIssued = "session_issued"
	localSessionEnded  = "session_ended"
)

// Session loads the session from Redis before the handler and saves it after.
// The current user is exposed under Locals("user"); flash data from the
// previous request is consumed and shared with the view layer.
func Session(rdb *redis.Client, cfg SessionConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		sessionID := c.Cookies(SessionCookieName)

		var data map[string]interface{}
		if sessionID != "" {
			b, err := rdb.Get(ctx, SessionRedisPrefix+sessionID).Bytes()
			if err == nil {
				_ = json.Unmarshal(b, &data)
			} else if err != redis.Nil {
				log.Warn().Err(err).Msg("session load failed")
			}
		}
		if data == nil {
			data = make(map[string]interface{})
		}

		c.Locals(localSessionData, data)
		c.Locals(userLocal, data["user"])
		c.Locals(localSessionID, sessionID)

		flash, _ := data[flashKey].(map[string]interface{})
		delete(data, flashKey)
		shareSession(c, flash)

		if err := c.Next(); err != nil {
			return err
		}

		if prev, _ := c.Locals(localSessionPrev).(string); prev != "" {
			_ = rdb.Del(ctx, SessionRedisPrefix+prev).Err()
		}
		sid, _ := c.Locals(localSessionID).(string)
		if ended, _ := c.Locals(localSessionEnded).(bool); ended {
			if sid != "" {
				_ = rdb.Del(ctx, SessionRedisPrefix+sid).Err()
			}
			cookie := SessionCookieConfig(cfg)
			cookie.MaxAge = 0
			cookie.Expires = time.Unix(0, 0)
			c.Cookie(&cookie)
			return nil
		}
		if sid == "" {
			return nil
		}
		updated, _ := c.Locals(localSessionData).(map[string]interface{})
		b, _ := json.Marshal(updated)
		if err := rdb.Set(ctx, SessionRedisPrefix+sid, b, sessionMaxAge).Err(); err != nil {
			log.Error().Err(err).Msg("session save failed")
		}
		if issued, _ := c.Locals(localSessionIssued).(bool); issued {
			cookie := SessionCookieConfig(cfg)
			cookie.Value = sid
			c.Cookie(&cookie)
		}
		return nil
	}
}

func shareSession(c *fiber.Ctx, flash map[string]interface{}) {
	view.Share(c, "auth", GetViewer(c))
	message, _ := flash["message"].(string)
	view.Share(c, "flash", fiber.Map{"message": message})
	errs := map[string]string{}
	if raw, ok := flash["errors"].(map[string]interface{}); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				errs[k] = s
			}
		}
	}
	view.Share(c, "errors", errs)
}

// GetSessionID returns the current session ID ("" when none).
func GetSessionID(c *fiber.Ctx) string {
	sid, _ := c.Locals(localSessionID).(string)
	return sid
}

// RegenerateSessionID issues a new session ID; the old Redis entry is removed
// and the cookie is set once the handler returns.
func RegenerateSessionID(c *fiber.Ctx) string {
	if old := GetSessionID(c); old != "" {
		c.Locals(localSessionPrev, old)
	}
	newID := uuid.New().String()
	c.Locals(localSessionID, newID)
	c.Locals(localSessionIssued, true)
	c.Locals(localSessionEnded, false)
	return newID
}

// SetSessionViewer stores v as the logged-in user.
func SetSessionViewer(c *fiber.Ctx, v *domain.Viewer) {
	data := sessionData(c)
	data["user"] = v.SessionMap()
	c.Locals(userLocal, data["user"])
	view.Share(c, "auth", v)
}

// GetViewer returns the logged-in user, or nil for anonymous requests.
func GetViewer(c *fiber.Ctx) *domain.Viewer {
	v, err := authsvc.VerifyUser(c.Locals(userLocal))
	if err != nil {
		return nil
	}
	return v
}

// SetFlash stores a message and field errors for the next request.
func SetFlash(c *fiber.Ctx, message string, errs map[string]string) {
	if GetSessionID(c) == "" {
		RegenerateSessionID(c)
	}
	flash := map[string]interface{}{}
	if message != "" {
		flash["message"] = message
	}
	if len(errs) > 0 {
		flash["errors"] = errs
	}
	sessionData(c)[flashKey] = flash
}

// DestroySession clears the session; the Redis entry and cookie are removed
// once the handler returns.
func DestroySession(c *fiber.Ctx) {
	c.Locals(localSessionData, make(map[string]interface{}))
	c.Locals(userLocal, nil)
	c.Locals(localSessionEnded, true)
}

func sessionData(c *fiber.Ctx) map[string]interface{} {
	data, _ := c.Locals(localSessionData).(map[string]interface{})
	if data == nil {
		data = make(map[string]interface{})
		c.Locals(localSessionData, data)
	}
	return data
}

// SessionCookieConfig returns the session cookie options.
func SessionCookieConfig(cfg SessionConfig) fiber.Cookie {
	sameSite := fiber.CookieSameSiteLaxMode
	if cfg.AllowCrossSiteDev {
		sameSite = fiber.CookieSameSiteNoneMode
	}
	return fiber.Cookie{
		Name:     SessionCookieName,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HTTPOnly: true,
		Secure:   cfg.IsProduction || cfg.AllowCrossSiteDev,
		SameSite: sameSite,
	}
}
