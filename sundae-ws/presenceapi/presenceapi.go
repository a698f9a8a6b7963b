// Package presenceapi serves read-only presence lookups over HTTP.
package presenceapi

import (
	"net/http"

	sundaecli "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-cli"
	sundaerest "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-rest"
	sundaews "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-ws"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type Presence struct {
	User         string `json:"user"`
	Friend       string `json:"friend"`
	ConnectionID string `json:"connectionId,omitempty"`
	Online       bool   `json:"online"`
}

type API struct {
	Connections sundaews.ConnectionStore
	Users       sundaews.UserStore
}

func (a *API) Routes(service sundaecli.Service) chi.Router {
	router := sundaerest.Middlewares(service, chi.NewRouter())
	router.Get("/healthz", sundaerest.Healthz(service))
	router.Get("/presence/{user}", a.GetPresence)
	return router
}

// GetPresence reports a user's friend and current connection. A connection id
// that is no longer tracked is reported with online=false.
func (a *API) GetPresence(w http.ResponseWriter, req *http.Request) {
	var (
		ctx    = req.Context()
		name   = chi.URLParam(req, "user")
		logger = zerolog.Ctx(ctx).With().Str("user", name).Logger()
	)

	user, err := a.Users.Get(ctx, name)
	if err != nil {
		logger.Error().Err(err).Msg("unable to load presence")
		sundaerest.WriteError(w, req, http.StatusInternalServerError, "unable to load presence")
		return
	}
	if user == nil {
		sundaerest.WriteError(w, req, http.StatusNotFound, "unknown user")
		return
	}

	presence := Presence{
		User:         user.UserName,
		Friend:       user.FriendName,
		ConnectionID: user.ConnectionID,
	}
	if user.ConnectionID != "" {
		conn, err := a.Connections.Get(ctx, user.ConnectionID)
		if err != nil {
			logger.Error().Err(err).Msg("unable to load connection")
			sundaerest.WriteError(w, req, http.StatusInternalServerError, "unable to load connection")
			return
		}
		presence.Online = conn != nil
	}

	sundaerest.WriteJSON(w, req, http.StatusOK, presence)
}
