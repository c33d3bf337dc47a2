package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jornadahq/jornada/logger"
	"github.com/jornadahq/jornada/model"
	"go.uber.org/zap"
)

func (s *Server) HandleInboundMessage(w http.ResponseWriter, r *http.Request) {
	var msgReq model.InboundMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&msgReq); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid message")
		return
	}
	defer r.Body.Close()
	if err := s.executionService.DeliverMessage(r.Context(), msgReq); err != nil {
		logger.Error("error delivering message", zap.String("subject", msgReq.Subject.Key()), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error delivering message")
		return
	}
	respondOKWithoutBody(w)
}

func (s *Server) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	var payload map[string]any
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&payload)
		defer r.Body.Close()
	}
	if err := s.executionService.DeliverWebhook(r.Context(), token, payload); err != nil {
		logger.Error("error delivering webhook", zap.String("token", token), zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "error delivering webhook")
		return
	}
	respondOKWithoutBody(w)
}
