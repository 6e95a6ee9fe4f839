// WebSocket entry point.
//
// GET /ws upgrades the HTTP connection and binds it to the relay. The
// client's role and room membership are established afterwards through
// join_room events; the upgrade itself is unauthenticated so customers can
// connect without an account.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/captain-yun7/medtranslate-v1/internal/http/middleware"
	"github.com/captain-yun7/medtranslate-v1/internal/relay"
)

// upgrader is shared across connections. Origin checking is delegated to
// the CORS layer; the websocket handshake accepts any origin.
var upgrader = websocket.Upgrader{
	ReadBufferSize:   4096,
	WriteBufferSize:  4096,
	HandshakeTimeout: 10 * time.Second,
	CheckOrigin:      func(*http.Request) bool { return true },
}

// ServeWS returns the GET /ws handler bound to the given relay.
func ServeWS(r *relay.Relay) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error response.
			middleware.LoggerFrom(c).Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		client := relay.NewClient(r, conn)
		client.Run(c.Request.Context())
	}
}
