package rest

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/jornadahq/jornada/logger"
	"github.com/jornadahq/jornada/model"
	"go.uber.org/zap"
)

func (s *Server) HandleSaveFlow(w http.ResponseWriter, r *http.Request) {
	var graph model.FlowGraph
	if err := json.NewDecoder(r.Body).Decode(&graph); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid flow definition")
		return
	}
	defer r.Body.Close()
	validationErrors, err := s.metadataService.SaveFlow(&graph)
	if err != nil {
		logger.Error("error saving flow", zap.String("flowId", graph.Id), zap.Error(err))
		respondWithJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  err.Error(),
			"issues": validationErrors,
		})
		return
	}
	respondOK(w, map[string]any{"flowId": graph.Id, "version": graph.Version, "issues": validationErrors})
}

func (s *Server) HandleGetLatestFlow(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	flowId := vars["id"]
	graph, err := s.metadataService.GetLatestGraph(flowId)
	if err != nil {
		logger.Error("error fetching flow", zap.String("flowId", flowId), zap.Error(err))
		respondWithError(w, http.StatusNotFound, "flow not found")
		return
	}
	respondWithJSON(w, http.StatusOK, graph)
}

func (s *Server) HandleGetFlowVersion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	flowId := vars["id"]
	version, err := strconv.Atoi(vars["version"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid version")
		return
	}
	graph, err := s.metadataService.GetGraph(flowId, version)
	if err != nil {
		logger.Error("error fetching flow version", zap.String("flowId", flowId), zap.Int("version", version), zap.Error(err))
		respondWithError(w, http.StatusNotFound, "flow version not found")
		return
	}
	respondWithJSON(w, http.StatusOK, graph)
}
