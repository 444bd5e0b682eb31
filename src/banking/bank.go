package banking

// Bank is an ASPSP as returned by the provider's discovery listing. The
// snapshot is fetched per country and not persisted beyond bank selection.
type Bank struct {
	Name                   string   `json:"name"`
	Country                string   `json:"country"`
	Logo                   string   `json:"logo"`
	BIC                    string   `json:"bic"`
	MaximumConsentValidity int64    `json:"maximum_consent_validity"` // seconds, default 90 days
	Beta                   bool     `json:"beta"`
	PsuTypes               []string `json:"psu_types"`
	AuthMethods            []string `json:"auth_methods"`
	RequiredPsuHeaders     []string `json:"required_psu_headers"`
}

const defaultConsentValiditySeconds = 7776000 // 90 days
