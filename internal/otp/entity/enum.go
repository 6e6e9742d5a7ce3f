package entity

type Purpose int16

const (
	PurposeUnknown Purpose = 0

	// PurposeEmailVerification proves control of the contact address itself.
	PurposeEmailVerification Purpose = 1

	// PurposePasswordReset authorizes a credential change; issuance responses
	// must not reveal whether the subject exists.
	PurposePasswordReset Purpose = 2

	// PurposeLogin2FA is a second factor during authentication.
	PurposeLogin2FA Purpose = 3
)

func PurposeFromString(str string) Purpose {
	switch str {
	case "EMAIL_VERIFICATION":
		return PurposeEmailVerification
	case "PASSWORD_RESET":
		return PurposePasswordReset
	case "LOGIN_2FA":
		return PurposeLogin2FA
	default:
		return PurposeUnknown
	}
}

func (p Purpose) String() string {
	switch p {
	case PurposeEmailVerification:
		return "EMAIL_VERIFICATION"
	case PurposePasswordReset:
		return "PASSWORD_RESET"
	case PurposeLogin2FA:
		return "LOGIN_2FA"
	default:
		return "UNKNOWN"
	}
}

func (p Purpose) IsUnknown() bool {
	switch p {
	case PurposeEmailVerification, PurposePasswordReset, PurposeLogin2FA:
		return false
	default:
		return true
	}
}
