package rest

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jornadahq/jornada/logger"
	"github.com/jornadahq/jornada/model"
	"go.uber.org/zap"
)

func (s *Server) HandleStartExecution(w http.ResponseWriter, r *http.Request) {
	var startReq model.StartExecutionRequest
	if err := json.NewDecoder(r.Body).Decode(&startReq); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid start request")
		return
	}
	defer r.Body.Close()
	executionId, err := s.executionService.StartExecution(r.Context(), startReq)
	if err != nil {
		logger.Error("error starting execution", zap.String("flowId", startReq.FlowId), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondOK(w, map[string]any{"executionId": executionId})
}

func (s *Server) HandleGetExecution(w http.ResponseWriter, r *http.Request) {
	executionId := mux.Vars(r)["id"]
	view, err := s.executionService.GetExecution(executionId)
	if err != nil {
		logger.Error("error getting execution", zap.String("id", executionId), zap.Error(err))
		respondWithError(w, http.StatusNotFound, "execution not found")
		return
	}
	respondWithJSON(w, http.StatusOK, view)
}

func (s *Server) HandleTerminateExecution(w http.ResponseWriter, r *http.Request) {
	executionId := mux.Vars(r)["id"]
	var termReq model.TerminateExecutionRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&termReq)
		defer r.Body.Close()
	}
	if err := s.executionService.TerminateExecution(executionId, termReq.Reason); err != nil {
		logger.Error("error terminating execution", zap.String("id", executionId), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondOKWithoutBody(w)
}

func (s *Server) HandlePauseExecution(w http.ResponseWriter, r *http.Request) {
	executionId := mux.Vars(r)["id"]
	if err := s.executionService.PauseExecution(executionId); err != nil {
		logger.Error("error pausing execution", zap.String("id", executionId), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondOKWithoutBody(w)
}

func (s *Server) HandleResumeExecution(w http.ResponseWriter, r *http.Request) {
	executionId := mux.Vars(r)["id"]
	if err := s.executionService.ResumeExecution(executionId); err != nil {
		logger.Error("error resuming execution", zap.String("id", executionId), zap.Error(err))
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondOKWithoutBody(w)
}
