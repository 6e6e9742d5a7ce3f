package inbound

import (
	"github.com/samber/lo"

	"github.com/andresuryana/vericode/internal/otp/entity"
	"github.com/andresuryana/vericode/internal/otp/usecase"
	"github.com/andresuryana/vericode/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for code issuance, verification and
// operational maintenance.
type HTTPEndpoint struct {
	uc uc
}

// RequestCode issues a new code for a subject and purpose. The code itself
// never appears in the response; it travels only through the delivery
// channel.
func (h *HTTPEndpoint) RequestCode(r *router.Request) (any, error) {
	var req RequestCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RequestCode(r.Context(), usecase.RequestCodeInput{
		SubjectID:      req.SubjectID,
		Purpose:        entity.PurposeFromString(req.Purpose),
		ContactAddress: req.ContactAddress,
		RequestIP:      r.RemoteAddr,
		RequestAgent:   r.UserAgent(),
	})
	if err != nil {
		return nil, err
	}

	return RequestCodeResponse{
		OTPID:     resp.OTPID,
		ExpiresAt: resp.ExpiresAt,
		ResendAt:  resp.ResendAt,
	}, nil
}

// VerifyCode checks a submitted code.
func (h *HTTPEndpoint) VerifyCode(r *router.Request) (any, error) {
	var req VerifyCodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.VerifyCode(r.Context(), usecase.VerifyCodeInput{
		SubjectID: req.SubjectID,
		Purpose:   entity.PurposeFromString(req.Purpose),
		Code:      req.Code,
	})
	if err != nil {
		return nil, err
	}

	return VerifyCodeResponse{
		OTPID:      resp.OTPID,
		VerifiedAt: resp.VerifiedAt,
	}, nil
}

// Sweep triggers an on-demand expiry sweep.
func (h *HTTPEndpoint) Sweep(r *router.Request) (any, error) {
	resp, err := h.uc.Sweep(r.Context())
	if err != nil {
		return nil, err
	}

	return SweepResponse{Swept: resp.Swept}, nil
}

// Purge deletes records older than the retention window.
func (h *HTTPEndpoint) Purge(r *router.Request) (any, error) {
	var req PurgeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Purge(r.Context(), usecase.PurgeInput{RetentionDays: req.RetentionDays})
	if err != nil {
		return nil, err
	}

	return PurgeResponse{Deleted: resp.Deleted, Cutoff: resp.Cutoff}, nil
}

// Flagged lists subjects with anomalous issuance volume.
func (h *HTTPEndpoint) Flagged(r *router.Request) (any, error) {
	windowDays, err := r.GetQueryInt32("window_days")
	if err != nil {
		return nil, err
	}
	threshold, err := r.GetQueryInt32("threshold")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.Flagged(r.Context(), usecase.FlaggedInput{
		WindowDays: int(windowDays),
		Threshold:  int64(threshold),
	})
	if err != nil {
		return nil, err
	}

	return FlaggedResponse{
		WindowDays: resp.WindowDays,
		Threshold:  resp.Threshold,
		Subjects: lo.Map(resp.Subjects, func(fs usecase.FlaggedSubject, _ int) FlaggedSubjectItem {
			return FlaggedSubjectItem{SubjectID: fs.SubjectID, Requests: fs.Requests, LastAt: fs.LastAt}
		}),
	}, nil
}

// Stats reports aggregate issuance outcomes over the trailing window.
func (h *HTTPEndpoint) Stats(r *router.Request) (any, error) {
	windowDays, err := r.GetQueryInt32("window_days")
	if err != nil {
		return nil, err
	}

	resp, err := h.uc.Stats(r.Context(), usecase.StatsInput{WindowDays: int(windowDays)})
	if err != nil {
		return nil, err
	}

	return StatsResponse{
		WindowDays:      resp.WindowDays,
		Total:           resp.Total,
		Used:            resp.Used,
		Expired:         resp.Expired,
		Active:          resp.Active,
		SuccessRate:     resp.SuccessRate,
		AverageAttempts: resp.AverageAttempts,
		PerPurpose:      resp.PerPurpose,
	}, nil
}

// StatsExport uploads the stats snapshot to object storage.
func (h *HTTPEndpoint) StatsExport(r *router.Request) (any, error) {
	var req StatsExportRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.StatsExport(r.Context(), usecase.StatsExportInput{WindowDays: req.WindowDays})
	if err != nil {
		return nil, err
	}

	return StatsExportResponse{
		Bucket:      resp.Bucket,
		Key:         resp.Key,
		DownloadURL: resp.DownloadURL,
		ExpiresIn:   int64(resp.ExpiresIn.Seconds()),
	}, nil
}
