package inbound

import "time"

type RequestCodeRequest struct {
	SubjectID      int64  `json:"subject_id,string"`
	Purpose        string `json:"purpose"`
	ContactAddress string `json:"contact_address"`
}

type RequestCodeResponse struct {
	OTPID     int64     `json:"otp_id,string"`
	ExpiresAt time.Time `json:"expires_at"`
	ResendAt  time.Time `json:"resend_at"`
}

func (RequestCodeResponse) Message() string {
	return "If the account exists, a verification code has been sent."
}

type VerifyCodeRequest struct {
	SubjectID int64  `json:"subject_id,string"`
	Purpose   string `json:"purpose"`
	Code      string `json:"code"`
}

type VerifyCodeResponse struct {
	OTPID      int64     `json:"otp_id,string"`
	VerifiedAt time.Time `json:"verified_at"`
}

func (VerifyCodeResponse) Message() string {
	return "Code verified successfully."
}

type SweepResponse struct {
	Swept int64 `json:"swept"`
}

type PurgeRequest struct {
	RetentionDays int `json:"retention_days,omitempty"`
}

type PurgeResponse struct {
	Deleted int64     `json:"deleted"`
	Cutoff  time.Time `json:"cutoff"`
}

type FlaggedSubjectItem struct {
	SubjectID int64     `json:"subject_id,string"`
	Requests  int64     `json:"requests"`
	LastAt    time.Time `json:"last_at"`
}

type FlaggedResponse struct {
	WindowDays int                  `json:"window_days"`
	Threshold  int64                `json:"threshold"`
	Subjects   []FlaggedSubjectItem `json:"subjects"`
}

type StatsResponse struct {
	WindowDays      int              `json:"window_days"`
	Total           int64            `json:"total"`
	Used            int64            `json:"used"`
	Expired         int64            `json:"expired"`
	Active          int64            `json:"active"`
	SuccessRate     float64          `json:"success_rate"`
	AverageAttempts float64          `json:"average_attempts"`
	PerPurpose      map[string]int64 `json:"per_purpose"`
}

type StatsExportRequest struct {
	WindowDays int `json:"window_days,omitempty"`
}

type StatsExportResponse struct {
	Bucket      string `json:"bucket"`
	Key         string `json:"key"`
	DownloadURL string `json:"download_url"`
	ExpiresIn   int64  `json:"expires_in_seconds"`
}
