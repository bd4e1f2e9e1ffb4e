package access

import "github.com/finleap/scf-onboarding-backend/pkg/enums"

// FeaturesForLevel returns the dashboard features unlocked at a level.
// Levels are cumulative: everything unlocked below stays unlocked.
func FeaturesForLevel(level enums.AccessLevel) []string {
	features := []string{"profile", "kyc_application"}
	if level.AtLeast(enums.AccessLevelKYCApproved) {
		features = append(features, "document_upload", "banking_details")
	}
	if level.AtLeast(enums.AccessLevelBankingSubmitted) {
		features = append(features, "agreements")
	}
	if level.AtLeast(enums.AccessLevelAgreementSigned) {
		features = append(features, "invoices", "relationships")
	}
	if level.AtLeast(enums.AccessLevelBankingVerified) {
		features = append(features, "payments", "financing")
	}
	return features
}
