package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskflow-api/internal/constants"
	"github.com/yukikurage/taskflow-api/internal/notify"
)

const sessionMaxAge = 86400 * 7 // 7 days

// SessionOptions configures the session store.
type SessionOptions struct {
	Secret string
	// BrokerURL selects the backend: redis:// and rediss:// keep sessions in
	// Redis, anything else uses signed cookies.
	BrokerURL string
	Secure    bool
}

// NewSessionStore builds the session store for the login cookie.
func NewSessionStore(opts SessionOptions) (sessions.Store, error) {
	var (
		store sessions.Store
		err   error
	)

	switch {
	case strings.HasPrefix(opts.BrokerURL, "redis://"), strings.HasPrefix(opts.BrokerURL, "rediss://"):
		store, err = newRedisSessionStore(opts)
		if err != nil {
			return nil, err
		}
	default:
		store = cookie.NewStore([]byte(opts.Secret))
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}

// newRedisSessionStore shares the broker URL with the notification queue, so
// TLS (rediss://), credentials and the db index all apply to sessions too.
func newRedisSessionStore(opts SessionOptions) (sessions.Store, error) {
	store, err := redisStore.NewStoreWithPool(notify.NewRedisPool(opts.BrokerURL), []byte(opts.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to create redis session store: %w", err)
	}
	return store, nil
}

// Sessions installs the session middleware under the application cookie name.
func Sessions(store sessions.Store) gin.HandlerFunc {
	return sessions.Sessions(constants.SessionCookieName, store)
}
