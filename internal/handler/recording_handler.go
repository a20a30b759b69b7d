package handler

import (
	"errors"
	"net/http"

	"videosdk/internal/app/storage"
	"videosdk/internal/pkg/errs"
	"videosdk/internal/pkg/logx"
	"videosdk/internal/pkg/resp"
)

// recordingKey resolves the "k" query parameter for a host request. It writes
// the error response itself and returns "" when the request cannot proceed.
func recordingKey(w http.ResponseWriter, r *http.Request, deps *AppDeps) string {
	if deps.Archive == nil {
		resp.RespondError(w, r, errs.NewError(errs.ErrFeatureDisabled))
		return ""
	}

	claims := requireHost(w, r)
	if claims == nil {
		return ""
	}

	key := r.URL.Query().Get("k")
	if key == "" {
		resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
		return ""
	}

	if !storage.KeyInSession(claims.Topic, key) {
		logx.Warn("Recording access outside the token's session", "session_name", claims.Topic)
		resp.RespondError(w, r, errs.NewError(errs.ErrForbidden))
		return ""
	}

	return key
}

// HandleRecordingDownload redirects to a short-lived download URL.
func HandleRecordingDownload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := recordingKey(w, r, deps)
		if key == "" {
			return
		}

		url, err := deps.Archive.PresignDownload(r.Context(), key, storage.PresignedURLDuration)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageFailed))
			return
		}

		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, url, http.StatusFound)
	}
}

// HandleRecordingMetadata returns the stored object's metadata.
func HandleRecordingMetadata(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := recordingKey(w, r, deps)
		if key == "" {
			return
		}

		meta, err := deps.Archive.GetObjectMetadata(r.Context(), key)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrRecordingNotFound))
				return
			}
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, meta)
	}
}

// HandleRecordingDelete removes a recording.
func HandleRecordingDelete(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := recordingKey(w, r, deps)
		if key == "" {
			return
		}

		if err := deps.Archive.Delete(r.Context(), key); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStorageFailed))
			return
		}

		logx.Info("Recording deleted", "key", key)
		resp.RespondSuccess(w, r, map[string]string{"deleted": key})
	}
}
