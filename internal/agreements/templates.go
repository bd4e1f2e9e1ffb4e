package agreements

import (
	"strings"

	"github.com/finleap/scf-onboarding-backend/pkg/enums"
)

const defaultTemplateVersion = "1.0"

// defaultTemplates is the bootstrap content inserted when no active template
// exists for a required type. Admin-seeded templates take precedence once
// they exist.
var defaultTemplates = map[enums.AgreementType]struct {
	title string
	body  string
}{
	enums.AgreementTypeFacility: {
		title: "Supply-Chain Finance Facility Agreement",
		body: "This Facility Agreement is entered into on {{effective_date}} between " +
			"the financing provider and {{party_email}} (the \"Buyer\").\n\n" +
			"The Buyer agrees to the terms of the supply-chain finance facility, " +
			"including approval of supplier invoices submitted through the portal " +
			"and settlement of financed amounts on their due dates.\n\n" +
			"Signatory: {{signatory_name}}, {{signatory_title}}",
	},
	enums.AgreementTypeSupplierTerms: {
		title: "Supplier Terms of Service",
		body: "These Supplier Terms are effective as of {{effective_date}} for " +
			"{{party_email}} (the \"Supplier\").\n\n" +
			"The Supplier agrees to offer receivables for early payment through the " +
			"portal, to the verification of submitted banking details, and to the " +
			"assignment of approved receivables to the financing provider.\n\n" +
			"Signatory: {{signatory_name}}, {{signatory_title}}",
	},
	enums.AgreementTypeBuyerTerms: {
		title: "Buyer Terms of Service",
		body: "These Buyer Terms are effective as of {{effective_date}} for " +
			"{{party_email}} (the \"Buyer\").\n\n" +
			"The Buyer agrees to confirm supplier invoices presented through the " +
			"portal and acknowledges that confirmed invoices may be financed.\n\n" +
			"Signatory: {{signatory_name}}, {{signatory_title}}",
	},
}

// renderTemplate substitutes {{key}} placeholders. Unknown placeholders are
// left intact so signatory fields survive until signing.
func renderTemplate(content string, vars map[string]string) string {
	for key, value := range vars {
		content = strings.ReplaceAll(content, "{{"+key+"}}", value)
	}
	return content
}
