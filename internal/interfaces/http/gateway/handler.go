package gateway

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sngm3741/podcast-question-gateway/internal/infrastructure/llm"
	"github.com/sngm3741/podcast-question-gateway/internal/interfaces/http/common"
	"github.com/sngm3741/podcast-question-gateway/internal/submission/application"
)

// ChatForwarder relays an opaque chat-completion body upstream.
type ChatForwarder interface {
	Forward(ctx context.Context, body []byte) (llm.Response, error)
}

// Handler wires the gateway routes to the proxy and the submission service.
type Handler struct {
	logger      *zap.Logger
	proxy       ChatForwarder
	submissions application.SubmissionService
	now         func() time.Time
}

// Config defines dependencies required by Handler.
type Config struct {
	Logger      *zap.Logger
	Proxy       ChatForwarder
	Submissions application.SubmissionService
	Now         func() time.Time
}

// NewHandler constructs the gateway HTTP handler set.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Handler{
		logger:      logger,
		proxy:       cfg.Proxy,
		submissions: cfg.Submissions,
		now:         now,
	}
}

// Register mounts the gateway routes. Any POST path other than the
// submission route is treated as a chat-completion proxy request.
func (h *Handler) Register(r chi.Router) {
	r.Post(common.SubmitEmailPath, h.submitEmailHandler())
	r.Post("/", h.chatProxyHandler())
	r.Post("/*", h.chatProxyHandler())
}
