package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"tuition-credits/internal/model"
)

type packageView struct {
	model.Package
	DisplayName     string   `json:"displayName"`
	DisplayFeatures []string `json:"displayFeatures,omitempty"`
}

func (h *Handler) viewPackage(tag language.Tag, p model.Package) packageView {
	v := packageView{Package: p, DisplayName: h.translator.Text(tag, p.Name)}
	for _, f := range p.Features {
		v.DisplayFeatures = append(v.DisplayFeatures, h.translator.Text(tag, f))
	}
	return v
}

// GET /v1/packages[?role=teacher|guardian]
func (h *Handler) handleListPackages(w http.ResponseWriter, r *http.Request) {
	role := model.UserType(r.URL.Query().Get("role"))
	pkgs, err := h.svc.ListPackages(r.Context(), role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	tag := h.locale(r)
	out := make([]packageView, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, h.viewPackage(tag, p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"packages": out})
}

// POST /v1/packages/init
func (h *Handler) handleInitPackages(w http.ResponseWriter, r *http.Request) {
	created, err := h.svc.InitializePackages(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"initialized": created})
}

// GET /v1/packages/{packageID}
func (h *Handler) handleGetPackage(w http.ResponseWriter, r *http.Request) {
	pkg, err := h.svc.GetPackage(r.Context(), chi.URLParam(r, "packageID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.viewPackage(h.locale(r), *pkg))
}
