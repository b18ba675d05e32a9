package gateway

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/sngm3741/podcast-question-gateway/internal/infrastructure/llm"
	"github.com/sngm3741/podcast-question-gateway/internal/interfaces/http/common"
)

// chatProxyHandler forwards the body to the LLM API and mirrors its reply.
func (h *Handler) chatProxyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		logger := h.logger.With(zap.String("requestId", middleware.GetReqID(r.Context())))

		body, err := io.ReadAll(io.LimitReader(r.Body, common.MaxRequestBody+1))
		if err != nil {
			logger.Warn("failed to read proxy request", zap.Error(err))
			common.WriteError(h.logger, w, http.StatusInternalServerError, err.Error())
			return
		}
		if len(body) > common.MaxRequestBody {
			common.WriteError(h.logger, w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}

		if h.proxy == nil {
			common.WriteError(h.logger, w, http.StatusInternalServerError, llm.ErrNotConfigured.Error())
			return
		}

		res, err := h.proxy.Forward(r.Context(), body)
		if err != nil {
			if errors.Is(err, llm.ErrNotConfigured) {
				logger.Error("chat proxy called without an API key")
			} else {
				logger.Warn("chat proxy failed", zap.Error(err))
			}
			common.WriteError(h.logger, w, http.StatusInternalServerError, err.Error())
			return
		}

		if res.Status >= http.StatusBadRequest {
			logger.Info("upstream returned error status", zap.Int("status", res.Status))
		}
		common.WriteRawJSON(h.logger, w, res.Status, res.Body)
	}
}
