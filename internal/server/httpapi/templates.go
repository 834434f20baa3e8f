package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/roomkeeper/internal/server/models"
)

type templateView struct {
	ID          models.Template     `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Settings    models.RoomSettings `json:"settings"`
}

func (h *Handler) listTemplates(w http.ResponseWriter, _ *http.Request) {
	out := make([]templateView, 0, len(models.Templates()))
	for _, t := range models.Templates() {
		info, _ := t.Info()
		out = append(out, templateView{ID: t, Name: info.Name, Description: info.Description, Settings: t.Settings()})
	}
	writeJSON(w, http.StatusOK, out)
}
