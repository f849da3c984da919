package handlers

import (
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"coverserver/internal/cover"
	"coverserver/internal/middleware"
)

// maxBodyBytes caps the generation request body; parameters are small.
const maxBodyBytes = 1 << 20

// GenerateCover handles GET/POST /covers/generate. Parameters come from the
// query string, a JSON body, or both; query values win per field.
func (a *App) GenerateCover(w http.ResponseWriter, r *http.Request) {
	var body []byte
	if r.Body != nil {
		body, _ = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	}

	meta := cover.RequestMeta{
		Source:  middleware.SourceFromContext(r.Context()),
		Country: middleware.CountryFromContext(r.Context()),
	}
	out := a.Generator.Generate(r.Context(), r.URL.Query(), body, meta)

	switch {
	case out.Rejected():
		a.json(w, http.StatusBadRequest, map[string]any{
			"error":   "validation failed",
			"details": out.Errors,
		})
	case out.Failed():
		a.error(w, http.StatusInternalServerError, out.Err.Error())
	default:
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Request.Filename))
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-Generation-Time-Ms", strconv.FormatInt(int64(math.Round(out.DurationMS)), 10))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(out.Image)
	}
}
