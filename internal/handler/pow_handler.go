package handler

import (
	"net/http"

	"videosdk/internal/pkg/errs"
	"videosdk/internal/pkg/logx"
	"videosdk/internal/pkg/req"
	"videosdk/internal/pkg/resp"
)

// HandlePowChallenge hands out a nonce to solve before requesting a token.
func HandlePowChallenge(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !deps.Gate.Enabled() {
			resp.RespondError(w, r, errs.NewError(errs.ErrFeatureDisabled))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"nonce":      deps.Gate.Challenge(),
			"difficulty": deps.Gate.Difficulty(),
		})
	}
}

type PowVerifyInput struct {
	Nonce   string `json:"nonce"`
	Counter string `json:"counter"`
}

// HandlePowVerify exchanges a solved challenge for a single-use proof token.
func HandlePowVerify(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !deps.Gate.Enabled() {
			resp.RespondError(w, r, errs.NewError(errs.ErrFeatureDisabled))
			return
		}

		var input PowVerifyInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Nonce == "" || input.Counter == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		token, err := deps.Gate.Redeem(input.Nonce, input.Counter)
		if err != nil {
			logx.Debug("Proof of work rejected", "error", err.Error())
			resp.RespondError(w, r, errs.NewError(errs.ErrPowChallengeInvalid))
			return
		}

		resp.RespondSuccess(w, r, map[string]string{"powToken": token})
	}
}
