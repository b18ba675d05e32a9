package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/sngm3741/podcast-question-gateway/internal/interfaces/http/common"
	"github.com/sngm3741/podcast-question-gateway/internal/submission/domain"
)

const invalidBodyMessage = "Invalid JSON body"

// submitEmailHandler validates the submission and fans it out to both sinks.
func (h *Handler) submitEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var in domain.Inbound
		decoder := json.NewDecoder(io.LimitReader(r.Body, common.MaxRequestBody))
		if err := decoder.Decode(&in); err != nil && !errors.Is(err, io.EOF) {
			h.logger.Debug("rejected submission body", zap.Error(err))
			common.WriteError(h.logger, w, http.StatusBadRequest, invalidBodyMessage)
			return
		}

		record, err := domain.NewRecord(in, h.now())
		if err != nil {
			common.WriteError(h.logger, w, http.StatusBadRequest, err.Error())
			return
		}

		if h.submissions == nil {
			common.WriteError(h.logger, w, http.StatusInternalServerError, "Failed to submit email")
			return
		}

		// Sinks are third-party side effects; a client hanging up must not abort them halfway.
		result := h.submissions.Submit(context.WithoutCancel(r.Context()), record)

		status := http.StatusOK
		if !result.Success {
			status = http.StatusInternalServerError
		}
		common.WriteJSON(h.logger, w, status, result)
	}
}
