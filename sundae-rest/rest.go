// Package sundaerest provides HTTP routing utilities with CORS support and
// common middleware, served locally or as an API Gateway Lambda.
package sundaerest

import (
	"encoding/json"
	"fmt"
	"net/http"

	sundaecli "github.com/SundaeSwap-finance/sundae-chat-relay/sundae-cli"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/savaki/apigateway"
)

func Middlewares(service sundaecli.Service, routes chi.Router) chi.Router {
	routes.Use(
		middleware.RequestID,
		withEmbedPolicyHeaders,
		withCORS(),
		withLogger(sundaecli.Logger(service)),
		middleware.Recoverer,
	)
	return routes
}

// Webserver listens on --port in console mode and otherwise hands routes to
// the Lambda runtime behind API Gateway.
func Webserver(service sundaecli.Service, routes chi.Router) error {
	logger := sundaecli.Logger(service)

	if sundaecli.CommonOpts.Console {
		logger.Info().Int("port", sundaecli.CommonOpts.Port).Msg("starting http server")
		addr := fmt.Sprintf(":%v", sundaecli.CommonOpts.Port)
		return http.ListenAndServe(addr, routes)
	}

	lambda.Start(apigateway.Wrap(routes, sundaecli.CommonOpts.Env))
	return nil
}

// Healthz reports the service name and version.
func Healthz(service sundaecli.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		WriteJSON(w, req, http.StatusOK, map[string]string{
			"service": service.Name,
			"version": service.Version,
		})
	}
}

// WriteJSON encodes v as the response body.
func WriteJSON(w http.ResponseWriter, req *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(req.Context()).Warn().Err(err).Msg("unable to write response")
	}
}

// WriteError writes {"error": msg}.
func WriteError(w http.ResponseWriter, req *http.Request, status int, msg string) {
	WriteJSON(w, req, status, map[string]string{"error": msg})
}

func withEmbedPolicyHeaders(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if websocket.IsWebSocketUpgrade(req) {
			handler.ServeHTTP(w, req)
			return
		}

		header := w.Header()
		header.Add("cross-origin-embedder-policy", "require-corp")
		header.Add("cross-origin-opener-policy", "same-origin")
		header.Add("cross-origin-resource-policy", "cross-origin")
		handler.ServeHTTP(w, req)
	})
}

func withCORS() func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
	})
}

func withLogger(logger zerolog.Logger) func(handler http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			l := logger.With().Str("request_id", middleware.GetReqID(req.Context())).Logger()
			ctx := l.WithContext(req.Context())
			req = req.WithContext(ctx)
			handler.ServeHTTP(w, req)
		})
	}
}
