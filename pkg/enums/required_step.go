package enums

// RequiredStep names the first unmet onboarding gate reported to the caller.
type RequiredStep string

const (
	RequiredStepCompleteKYC    RequiredStep = "complete_kyc"
	RequiredStepSubmitBanking  RequiredStep = "submit_banking"
	RequiredStepSignAgreements RequiredStep = "sign_agreements"
	RequiredStepContactSupport RequiredStep = "contact_support"
	RequiredStepNone           RequiredStep = ""
)

// String implements fmt.Stringer.
func (r RequiredStep) String() string {
	return string(r)
}
