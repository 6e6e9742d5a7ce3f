package event

const OTPIssuedDestination string = "otp_issued"
const OTPIssuedConsumerDelivery string = "otp_issued_delivery"

type OTPIssuedMessage struct {
	OTPID          int64  `json:"otp_id"`
	SubjectID      int64  `json:"subject_id"`
	ContactAddress string `json:"contact_address"`
	Purpose        string `json:"purpose"`
	Code           string `json:"code"`
	ExpiresAt      int64  `json:"expires_at"`
}
