package www

import (
	"log/slog"
	"net/http"

	"github.com/angas/riskplot-go/types"
)

type fieldView struct {
	Field types.Field `json:"field"`
	Axis  types.Axis  `json:"axis"`
	Title string      `json:"title"`
}

type datasetResponse struct {
	Fields  []fieldView   `json:"fields"`
	Records types.Dataset `json:"records"`
}

func NewDatasetHandler(logger *slog.Logger, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds := hub.Dataset()
		if ds == nil {
			ds = types.Dataset{}
		}

		fields := types.AllFields()
		resp := datasetResponse{Fields: make([]fieldView, len(fields)), Records: ds}
		for i, f := range fields {
			resp.Fields[i] = fieldView{Field: f, Axis: f.Info().Axis, Title: f.Info().Title}
		}

		logger.Debug("serving dataset", slog.Int("records", ds.Len()))
		respondJSON(w, http.StatusOK, resp)
	}
}
