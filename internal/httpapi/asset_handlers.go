package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"hirehub.dev/internal/assets"
	"hirehub.dev/internal/audit"
	"hirehub.dev/internal/auth"
)

const uploadField = "image"

type deleteAssetRequest struct {
	URL string `json:"url"`
	ID  string `json:"public_id"`
}

func (a *API) handleUploadAsset(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	if a.assets == nil {
		writeError(w, r, http.StatusServiceUnavailable, "asset storage is not configured")
		return
	}
	if err := r.ParseMultipartForm(assets.MaxUploadBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "expected a multipart form with an image field")
		return
	}
	file, header, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, assets.MaxUploadBytes+1))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "could not read upload")
		return
	}
	if len(data) == 0 {
		writeError(w, r, http.StatusBadRequest, "no file uploaded")
		return
	}
	if len(data) > assets.MaxUploadBytes {
		writeError(w, r, http.StatusBadRequest, assets.ErrTooLarge.Error())
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	uploaded, err := a.assets.Upload(r.Context(), data, contentType)
	if err != nil {
		a.handleAssetError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "asset.uploaded",
		zap.String("public_id", uploaded.ID),
		zap.String("uploaded_by", caller.UserID))
	writeJSON(w, http.StatusCreated, uploaded)
}

func (a *API) handleDeleteAsset(w http.ResponseWriter, r *http.Request, caller auth.Identity) {
	if a.assets == nil {
		writeError(w, r, http.StatusServiceUnavailable, "asset storage is not configured")
		return
	}
	var req deleteAssetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	target := strings.TrimSpace(req.URL)
	if target == "" {
		target = strings.TrimSpace(req.ID)
	}
	if target == "" {
		writeError(w, r, http.StatusBadRequest, "url is required")
		return
	}
	if err := a.svc.AuthorizeAssetDelete(r.Context(), caller, target); err != nil {
		a.handleError(w, r, err)
		return
	}
	outcome, err := a.assets.Delete(r.Context(), target)
	if err != nil {
		a.handleAssetError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "asset.deleted",
		zap.String("target", target),
		zap.String("outcome", string(outcome)),
		zap.String("deleted_by", caller.UserID))
	writeJSON(w, http.StatusOK, map[string]any{"result": outcome})
}

func (a *API) handleAssetError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, assets.ErrUnsupportedType),
		errors.Is(err, assets.ErrTooLarge),
		errors.Is(err, assets.ErrUnrecognized):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		a.handleError(w, r, err)
	}
}
