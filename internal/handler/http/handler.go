package handler

import (
	"context"
	"log/slog"
	"net/http"

	_ "github.com/aniladanir/wa-ai-relay/docs"
	"github.com/aniladanir/wa-ai-relay/internal/domain"
	"github.com/aniladanir/wa-ai-relay/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Relay is the message pipeline the handler serves
type Relay interface {
	HandleWebhook(ctx context.Context, payload map[string]any, policy service.Policy) (*service.Outcome, error)
	SendMessage(ctx context.Context, phoneNumber, text string) (string, *domain.SendResult, error)
	ListTurns(ctx context.Context, limit, offset int) (*domain.TurnPage, error)
}

// CorsOptions mirrors the CORS settings of the service config
type CorsOptions struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
}

type Handler struct {
	relay  Relay
	logger *slog.Logger
	server *http.Server
}

// @title WhatsApp AI Relay API
// @version 1.0
// @description Relays WhatsApp messages received from the Z-API webhook to an LLM and sends the reply back
// @host localhost:3000
// @BasePath /
func NewHttpHandler(addr string, relay Relay, logger *slog.Logger, corsOpts CorsOptions) *Handler {
	h := &Handler{
		relay:  relay,
		logger: logger,
	}

	// create router
	router := gin.Default()
	router.HandleMethodNotAllowed = true
	router.Use(requestID())

	// gateway-facing routes never answer with a non-2xx status
	router.POST("/webhook", acknowledge(logger), h.gatewayWebhook)
	router.POST("/gancho", acknowledge(logger), h.gatewayWebhook)

	router.GET("/messages", h.listMessages)
	router.POST("/send", h.sendMessage)

	api := router.Group("/api")
	api.POST("/webhook", h.strictWebhook)
	api.GET("/messages", h.listMessages)
	api.POST("/send", h.sendMessage)

	router.GET("/", h.index)
	router.GET("/health", h.health)
	router.GET("/ping", h.ping)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.NoRoute(notFound)
	router.NoMethod(methodNotAllowed)

	// create http server
	h.server = &http.Server{
		Addr:     addr,
		Handler:  withCors(router.Handler(), corsOpts),
		ErrorLog: slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	return h
}

// Handler returns the root http handler, CORS included
func (h *Handler) Handler() http.Handler {
	return h.server.Handler
}

func (h *Handler) Run() error {
	return h.server.ListenAndServe()
}

func (h *Handler) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

func withCors(next http.Handler, opts CorsOptions) http.Handler {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   opts.AllowedMethods,
		AllowedHeaders:   opts.AllowedHeaders,
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: opts.AllowCredentials,
	})(next)
}
