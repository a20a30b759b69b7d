package handler

import (
	"errors"
	"net/http"
	"strconv"

	"videosdk/internal/app/ledger"
	"videosdk/internal/pkg/errs"
	"videosdk/internal/pkg/logx"
	"videosdk/internal/pkg/resp"
)

// HandleListIssuances lists the latest issuances of the host's own session.
func HandleListIssuances(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := requireHost(w, r)
		if claims == nil {
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
				return
			}
			limit = n
		}

		entries, err := deps.Ledger.ListBySession(r.Context(), claims.Topic, limit)
		if err != nil {
			if errors.Is(err, ledger.ErrDisabled) {
				resp.RespondError(w, r, errs.NewError(errs.ErrFeatureDisabled))
				return
			}
			logx.Error(err, "Failed to list issuances", "session_name", claims.Topic)
			resp.RespondError(w, r, errs.NewError(errs.ErrLedgerFailed))
			return
		}

		if entries == nil {
			entries = []ledger.Entry{}
		}

		resp.RespondSuccess(w, r, map[string]any{
			"sessionName": claims.Topic,
			"entries":     entries,
		})
	}
}
