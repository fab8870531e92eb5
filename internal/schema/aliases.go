package schema

// Aliases maps a canonical column to the input header names accepted for
// it, compared after NormalizeHeader. A canonical column with no entry is
// matched by its own name only.
type Aliases map[string][]string

// DefaultAliases is the static synonym table. LAN is deliberately listed
// for both LAN and CH CODE: both targets receive the account key.
var DefaultAliases = Aliases{
	LAN:             {"LAN", "ACCOUNT NUMBER", "ACCTNUM"},
	ChCode:          {"LAN", "CH CODE"},
	Name:            {"NAME", "DEBTOR NAME", "BORROWER NAME", "NAME_ALS"},
	CTL4:            {"CTL4"},
	PastDue:         {"PAST DUE", "OVERDUE AMOUNT"},
	PayoffAmount:    {"PAYOFF AMOUNT", "PAYOFF AMT"},
	Principal:       {"PRINCIPAL", "PRINCIPAL AMOUNT"},
	LPC:             {"LPC", "LOAN PRINCIPAL CONTRACTED"},
	ADAShortage:     {"ADA SHORTAGE", "ADA SHORT"},
	Email:           {"EMAIL", "EMAIL_ALS", "BORROWER EMAIL"},
	MobileALS:       {"MOBILE_ALS", "MOBILE NO ALS", "MOBILE NUMBER", "MOBILE_NO_ALS"},
	MobileALFES:     {"MOBILE_ALFES", "MOBILE NO ALFES"},
	PrimaryNoALS:    {"PRIMARY_NO_ALS", "PRIMARY NO"},
	BusNoALS:        {"BUS_NO_ALS", "BUSINESS NO"},
	LandlineNoALS:   {"LANDLINE_NO_ALS", "LANDLINE NO ALFES", "LANDLINE", "LANDLINE_NO_ALFES"},
	DateReferred:    {"DATE REFERRED", "REFERRAL DATE"},
	Unit:            {"UNIT", "SHORT DESCRIPTION", "UNIT DESCRIPTION", "SHORT_DESCRIPTION"},
	DPD:             {"DPD", "DAYS PAST DUE"},
	CUPayment:       {"CU PAYMENT", "CU PAYMENT AMT", "CU PAYMENT AMOUNT"},
	LastPaymentDate: {"LAST PAYMENT DATE", "LST BAL CHG DT"},
	MonthlyAmort:    {"MONTHLY AMORTIZATION", "MOAMORT_ALFES"},
	OldestDueDate:   {"OLDEST DUE DATE", "OLDEST_DUE_DATE"},
	AltEmail:        {"ALTERNATIVE EMAIL ADDRESS", "EMAIL_ALFES"},
	CoBorrower:      {"CO BORROWER", "COMAKER_NAME_ALFES"},
	CoBorrowerEmail: {"CO BORROWER EMAIL", "COMAKER_EMAIL_ALFES"},
}

func (a Aliases) Synonyms(column string) []string {
	if names, ok := a[column]; ok && len(names) > 0 {
		return names
	}
	return []string{column}
}

// Merge returns a copy of a with extra synonyms appended per column.
func (a Aliases) Merge(extra map[string][]string) Aliases {
	out := make(Aliases, len(a)+len(extra))
	for column, names := range a {
		out[column] = append([]string{}, names...)
	}
	for column, names := range extra {
		column = NormalizeHeader(column)
		if _, ok := out[column]; !ok {
			out[column] = []string{column}
		}
		for _, name := range names {
			out[column] = append(out[column], NormalizeHeader(name))
		}
	}
	return out
}

// Rename is a source column copied onto a canonical column.
type Rename struct {
	Source string
	Target string
}

// TADRenames aligns a transaction-activity export onto the worklist schema.
var TADRenames = []Rename{
	{DateReferred, DateReferred},
	{CTL2, CTL2},
	{CTL3, CTL3},
	{CTL4, CTL4},
	{LAN, LAN},
	{PastDue, PastDue},
	{PayoffAmount, PayoffAmount},
	{Principal, Principal},
	{Interest, Interest},
	{LPC, LPC},
	{Insurance, Insurance},
	{Prepayment, Prepayment},
	{"CU PAYMENT AMT", CUPayment},
	{"CU PAYMENT AMOUNT", CUPayment},
	{"LST BAL CHG DT", LastPaymentDate},
	{PremAmt, PremAmt},
	{ProdType, ProdType},
	{LPCYTD, LPCYTD},
	{Rate, Rate},
	{RepricingDate, RepricingDate},
	{DPD, DPD},
	{ADAShortage, ADAShortage},
}

// EndorsementRenames copies endorsement export fields onto the worklist.
var EndorsementRenames = []Rename{
	{"MOAMORT_ALFES", MonthlyAmort},
	{"OLDEST_DUE_DATE", OldestDueDate},
	{"SHORT_DESCRIPTION", Unit},
	{"EMAIL_ALS", Email},
	{"EMAIL_ALFES", AltEmail},
	{"MOBILE_NO_ALS", MobileALS},
	{"MOBILE_ALFES", MobileALFES},
	{"PRIMARY_NO_ALS", PrimaryNoALS},
	{"BUS_NO_ALS", BusNoALS},
	{"LANDLINE_NO_ALFES", LandlineNoALS},
	{"COMAKER_NAME_ALFES", CoBorrower},
	{"COMAKER_MOBILE_ALFES", CoBorrowerMobile},
	{"COMAKER_LANDLINE_ALFES", CoBorrowerLandln},
	{"COMAKER_EMAIL_ALFES", CoBorrowerEmail},
	{"NAME_ALS", Name},
}

// MonthlyEndorsementRenames is the monthly variant, which also takes CTL4
// and DPD from the endorsement export.
var MonthlyEndorsementRenames = append([]Rename{
	{CTL4, CTL4},
	{DPD, DPD},
}, EndorsementRenames...)

// DailyRenames standardises today's transaction export column names before
// refreshing the active list.
var DailyRenames = []Rename{
	{"LST BAL CHG DT", LastPaymentDate},
	{"CU PAYMENT AMT", CUPayment},
	{"CU PAYMENT AMOUNT", CUPayment},
}
