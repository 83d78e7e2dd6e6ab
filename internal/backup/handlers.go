package backup

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/YeyeJames/jiale15/pkg/api"
	"github.com/YeyeJames/jiale15/pkg/types"
)

const maxBackupBytes = 32 << 20

// RestoreResult reports which collections a restore replaced
type RestoreResult struct {
	Restored   []types.Slot `json:"restored"`
	ExportDate string       `json:"exportDate,omitempty"`
}

// RegisterRoutes mounts the backup endpoints. Staff may export and restore.
func (s *Service) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/backup", s.exportHandler).Methods("GET")
	router.HandleFunc("/backup/restore", s.restoreHandler).Methods("POST")

	s.logger.Info("Backup routes configured")
}

func (s *Service) exportHandler(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.WriteExport(&buf); err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", s.Filename()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.WithError(err).Error("Failed to send backup")
	}
}

func (s *Service) restoreHandler(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBackupBytes))
	if err != nil {
		api.WriteError(w, r, s.logger, types.NewFormatError(types.ErrCodeMalformedBackup, "failed to read backup document", err))
		return
	}

	doc, err := s.Restore(r.Context(), data)
	if err != nil {
		api.WriteError(w, r, s.logger, err)
		return
	}

	slots := doc.Slots()
	if slots == nil {
		slots = []types.Slot{}
	}
	api.WriteJSON(w, s.logger, http.StatusOK, RestoreResult{Restored: slots, ExportDate: doc.ExportDate})
}
