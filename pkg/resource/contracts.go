package resource

// Registered resource kinds.
const (
	KindPhysicalAccount   Kind = "physical_account"
	KindLegalAccount      Kind = "legal_account"
	KindPayment           Kind = "payment"
	KindPM211FZ           Kind = "pm_211fz"
	KindConsentPE         Kind = "consent_pe"
	KindConsentLE         Kind = "consent_le"
	KindBankDocument      Kind = "bank_document"
	KindInsuranceDocument Kind = "insurance_document"
	KindVRP               Kind = "vrp"
	KindTransaction       Kind = "transaction"
	KindMedicalInsured    Kind = "medical_insured"
	KindProductAgreement  Kind = "product_agreement"
)

// Closed enumerations.
var (
	Currencies     = []string{"RUB", "USD", "EUR"}
	Frequencies    = []string{"DAILY", "WEEKLY", "MONTHLY"}
	ProductTypes   = []string{"LOAN", "DEPOSIT", "INSURANCE"}
	AccountStatus  = []string{"active", "blocked", "closed"}
	PaymentStatus  = []string{"PENDING", "COMPLETED", "FAILED"}
	ConsentStatus  = []string{"ACTIVE", "INACTIVE", "PENDING"}
	VRPStatus      = []string{"ACTIVE", "PAUSED", "EXPIRED"}
	TxStatus       = []string{"completed", "pending", "reversed"}
	AgreementState = []string{"ACTIVE", "INACTIVE", "PENDING"}
)

// Patterns.
const (
	PatternIBAN     = `^[A-Z]{2}\d{2}[A-Z0-9]{1,30}$`
	PatternBase64   = `^(?:[A-Za-z0-9+/]{4})*(?:[A-Za-z0-9+/]{2}==|[A-Za-z0-9+/]{3}=)?$`
	PatternDate     = `^\d{4}-\d{2}-\d{2}$`
	PatternDateTime = `^\d{4}-\d{2}-\d{2}(T.+)?$`
)

// Account type discriminators, shared with the operational counters.
const (
	TypePhysicalEntity = "physical_entity"
	TypeLegalEntity    = "legal_entity"
)

// Domain ceilings for medical-insured records.
const (
	MaxNameLength   = 100
	MaxPolicyLength = 20
)

func minimum(v float64) *float64 { return &v }

func currencyField() Field {
	return Field{Name: "currency", Type: TypeString, Required: true, Updatable: true, Enum: Currencies, Filterable: true}
}

func accountFields(holder string) []Field {
	return []Field{
		{Name: "balance", Type: TypeNumber, Required: true, Updatable: true, Minimum: minimum(0)},
		currencyField(),
		{Name: holder, Type: TypeString, Required: true, Updatable: true},
		{Name: "status", Type: TypeString, Updatable: true, Default: "active", Enum: AccountStatus, Filterable: true},
	}
}

func consentFields() []Field {
	return []Field{
		{Name: "tpp_id", Type: TypeString, Required: true, Updatable: true, Filterable: true},
		{Name: "subject", Type: TypeString, Required: true, Updatable: true},
		{Name: "scope", Type: TypeString, Updatable: true},
		{Name: "permissions", Type: TypeArray, Items: TypeString, Required: true, Updatable: true},
		{Name: "account_id", Type: TypeString, Updatable: true, Filterable: true},
		{Name: "status", Type: TypeString, Updatable: true, Default: "ACTIVE", Enum: ConsentStatus, Filterable: true},
	}
}

func init() {
	Register(&Contract{
		Kind:       KindPhysicalAccount,
		Type:       TypePhysicalEntity,
		Table:      "accounts",
		BasePath:   "/accounts-v1.3.3/",
		Title:      "Physical entity accounts",
		Fields:     accountFields("owner"),
		UpdateMode: PartialFields,
		Operations: ReadWrite,
	})

	Register(&Contract{
		Kind:       KindLegalAccount,
		Type:       TypeLegalEntity,
		Table:      "accounts",
		BasePath:   "/accounts-le-v2.0.0/",
		Title:      "Legal entity accounts",
		Fields:     accountFields("company"),
		UpdateMode: PartialFields,
		Operations: ReadWrite,
	})

	Register(&Contract{
		Kind:     KindPayment,
		Type:     "standard",
		Table:    "payments",
		BasePath: "/payments-v1.3.1/",
		Title:    "Payments",
		Fields: []Field{
			{Name: "amount", Type: TypeNumber, Required: true, Updatable: true, Minimum: minimum(0.01)},
			currencyField(),
			{Name: "recipient", Type: TypeString, Required: true, Updatable: true},
			{Name: "purpose", Type: TypeString},
			{Name: "budget_code", Type: TypeString},
			{Name: "account_id", Type: TypeString, Required: true, Filterable: true},
			{Name: "status", Type: TypeString, Server: true, Default: "PENDING", Enum: PaymentStatus, Filterable: true},
		},
		UpdateMode: FullReplace,
		CreatedAt:  true,
		Operations: ReadWrite,
	})

	Register(&Contract{
		Kind:     KindPM211FZ,
		Type:     "pm_211fz",
		Table:    "payments",
		BasePath: "/pm-211fz-v1.3.1/",
		Title:    "Budget payments (211-FZ)",
		Fields: []Field{
			{Name: "amount", Type: TypeNumber, Required: true, Updatable: true, Minimum: minimum(0)},
			currencyField(),
			{Name: "recipient", Type: TypeString, Required: true, Updatable: true},
			{Name: "purpose", Type: TypeString, Required: true},
			{Name: "budget_code", Type: TypeString, Required: true},
			{Name: "account_id", Type: TypeString, Required: true, Filterable: true},
			{Name: "status", Type: TypeString, Server: true, Default: "PENDING", Enum: []string{"PENDING"}},
		},
		UpdateMode: FullReplace,
		CreatedAt:  true,
		Operations: ReadWrite,
	})

	Register(&Contract{
		Kind:       KindConsentPE,
		Type:       TypePhysicalEntity,
		Table:      "consents",
		BasePath:   "/consent-pe-v2.0.0/",
		Title:      "Physical entity consents",
		Fields:     consentFields(),
		UpdateMode: PartialFields,
		CreatedAt:  true,
		Operations: ReadWrite,
	})

	Register(&Contract{
		Kind:       KindConsentLE,
		Type:       TypeLegalEntity,
		Table:      "consents",
		BasePath:   "/consent-le-v2.0.0/",
		Title:      "Legal entity consents",
		Fields:     consentFields(),
		UpdateMode: PartialFields,
		CreatedAt:  true,
		Operations: ReadWrite,
	})

	Register(&Contract{
		Kind:     KindBankDocument,
		Type:     "statement",
		Table:    "bank_documents",
		BasePath: "/bank-doc-v1.0.1/",
		Title:    "Bank documents",
		Fields: []Field{
			{Name: "content", Type: TypeString, Required: true, Updatable: true, Pattern: PatternBase64},
			{Name: "signature", Type: TypeString, Required: true, Updatable: true},
			{Name: "account_id", Type: TypeString, Updatable: true, Filterable: true},
		},
		UpdateMode: PartialFields,
		CreatedAt:  true,
		Operations: ReadWrite,
	})

	Register(&Contract{
		Kind:     KindInsuranceDocument,
		Type:     "policy",
		Table:    "insurance_documents",
		BasePath: "/insurance-doc-v1.0.1/",
		Title:    "Insurance documents",
		Fields: []Field{
			{Name: "content", Type: TypeString, Required: true, Updatable: true, Pattern: PatternBase64},
			{Name: "policy_number", Type: TypeString, Required: true, Updatable: true, MaxLength: MaxPolicyLength, Filterable: true},
			{Name: "valid_until", Type: TypeString, Required: true, Updatable: true, Pattern: PatternDateTime},
		},
		UpdateMode: PartialFields,
		Operations: ReadWrite,
	})

	Register(&Contract{
		Kind:     KindVRP,
		Type:     "vrp",
		Table:    "vrps",
		BasePath: "/vrp-v1.3.1/",
		Title:    "Variable recurring payments",
		Fields: []Field{
			{Name: "max_amount", Type: TypeNumber, Required: true, Updatable: true, Minimum: minimum(1)},
			{Name: "frequency", Type: TypeString, Required: true, Updatable: true, Enum: Frequencies, Filterable: true},
			{Name: "valid_until", Type: TypeString, Required: true, Updatable: true, Pattern: PatternDateTime, Future: true},
			{Name: "recipient_account", Type: TypeString, Required: true, Updatable: true, Pattern: PatternIBAN},
			{Name: "status", Type: TypeString, Server: true, Default: "ACTIVE", Enum: VRPStatus, Filterable: true},
		},
		UpdateMode: FullReplace,
		OrderBy:    []Order{{Column: "valid_until", Desc: true}},
		Operations: ReadWrite,
	})

	Register(&Contract{
		Kind:     KindTransaction,
		Type:     "transaction",
		Table:    "transactions",
		BasePath: "/transaction-history-v1.0.0/",
		Title:    "Transaction history",
		Fields: []Field{
			{Name: "date", Type: TypeString, Required: true, Pattern: PatternDateTime},
			{Name: "amount", Type: TypeNumber, Required: true},
			{Name: "description", Type: TypeString},
			{Name: "account_id", Type: TypeString, Required: true, Filterable: true},
			{Name: "status", Type: TypeString, Required: true, Enum: TxStatus, Filterable: true},
		},
		UpdateMode: FullReplace,
		OrderBy:    []Order{{Column: "date", Desc: true}},
		Operations: ReadOnly,
	})

	Register(&Contract{
		Kind:     KindMedicalInsured,
		Type:     "medical_insured",
		Table:    "medical_insured",
		BasePath: "/medical-insured-person-v3.0.3/",
		Title:    "Medical insured persons",
		Fields: []Field{
			{Name: "name", Type: TypeString, Required: true, Updatable: true, MaxLength: MaxNameLength},
			{Name: "policy_number", Type: TypeString, Required: true, Updatable: true, MaxLength: MaxPolicyLength, Filterable: true},
			{Name: "birth_date", Type: TypeString, Updatable: true, Pattern: PatternDate},
		},
		UpdateMode: FullReplace,
		Operations: ReadWrite,
	})

	Register(&Contract{
		Kind:     KindProductAgreement,
		Type:     "product_agreement",
		Table:    "product_agreements",
		BasePath: "/product-agreement-consents-v1.0.1/",
		Title:    "Product agreements",
		Fields: []Field{
			{Name: "product_type", Type: TypeString, Required: true, Updatable: true, Enum: ProductTypes, Filterable: true},
			{Name: "terms", Type: TypeObject, Required: true, Updatable: true},
			{Name: "account_id", Type: TypeString, Filterable: true},
			{Name: "status", Type: TypeString, Server: true, Default: "ACTIVE", Enum: AgreementState, Filterable: true},
		},
		UpdateMode: FullReplace,
		Operations: ReadWrite,
	})
}
