// Package schema defines the canonical worklist columns, the synonym table
// used to recognise them in arbitrary exports, and the normalisers applied
// to header names and account keys.
package schema

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Canonical column names used across flows.
const (
	LastBarcodeDate   = "LAST BARCODE DATE"
	LastBarcode       = "LAST BARCODE"
	PTPDate           = "PTP DATE"
	Agent             = "AGENT"
	Classification    = "CLASSIFICATION"
	EndoDate          = "ENDO DATE"
	DateReferred      = "DATE REFERRED"
	CTL2              = "CTL2"
	CTL3              = "CTL3"
	CTL4              = "CTL4"
	DebtorID          = "DEBTOR ID"
	LAN               = "LAN"
	Name              = "NAME"
	PastDue           = "PAST DUE"
	PayoffAmount      = "PAYOFF AMOUNT"
	Principal         = "PRINCIPAL"
	MonthlyAmort      = "MONTHLY AMORTIZATION"
	Interest          = "INTEREST"
	LPC               = "LPC"
	Insurance         = "INSURANCE"
	Prepayment        = "PREPAYMENT"
	CUPayment         = "CU PAYMENT"
	LastPaymentDate   = "LAST PAYMENT DATE"
	PremAmt           = "PREM AMT"
	ProdType          = "PROD TYPE"
	LPCYTD            = "LPC YTD"
	Rate              = "RATE"
	RepricingDate     = "REPRICING DATE"
	DPD               = "DPD"
	LoanMaturity      = "LOAN MATURITY"
	DueDate           = "DUE DATE"
	OldestDueDate     = "OLDEST DUE DATE"
	NextDueDate       = "NEXT DUE DATE"
	ADAShortage       = "ADA SHORTAGE"
	Unit              = "UNIT"
	Email             = "EMAIL"
	AltEmail          = "ALTERNATIVE EMAIL ADDRESS"
	MobileALS         = "MOBILE_ALS"
	MobileALFES       = "MOBILE_ALFES"
	PrimaryNoALS      = "PRIMARY_NO_ALS"
	BusNoALS          = "BUS_NO_ALS"
	LandlineNoALS     = "LANDLINE_NO_ALS"
	CoBorrower        = "CO BORROWER"
	CoBorrowerMobile  = "CO BORROWER MOBILE_ALFES"
	CoBorrowerLandln  = "CO BORROWER LANDLINE__ALFES"
	CoBorrowerEmail   = "CO BORROWER EMAIL"
	ChCode            = "CH CODE"
	Date              = "DATE"
	EndorsementAcctNo = "ACCTNUM"
)

// Worklist is the ordered canonical schema every worklist output exposes.
var Worklist = []string{
	LastBarcodeDate, LastBarcode, PTPDate, Agent, Classification, EndoDate, DateReferred,
	CTL2, CTL3, CTL4, DebtorID, LAN, Name, PastDue, PayoffAmount, Principal,
	MonthlyAmort, Interest, LPC, Insurance, Prepayment, CUPayment,
	LastPaymentDate, PremAmt, ProdType, LPCYTD, Rate, RepricingDate, DPD,
	LoanMaturity, DueDate, OldestDueDate, NextDueDate, ADAShortage, Unit, Email,
	AltEmail, MobileALS, MobileALFES, PrimaryNoALS, BusNoALS,
	LandlineNoALS, CoBorrower, CoBorrowerMobile, CoBorrowerLandln,
	CoBorrowerEmail,
}

// Alignment is the compact schema produced by the standalone header
// alignment tool.
var Alignment = []string{
	LAN, ChCode, Name, CTL4, PastDue, PayoffAmount, Principal, LPC, ADAShortage,
	Email, MobileALS, MobileALFES, PrimaryNoALS, BusNoALS, LandlineNoALS,
	DateReferred, Unit, DPD,
}

// DateColumns are reformatted to short dates before output.
var DateColumns = []string{
	LastBarcodeDate, Date, PTPDate, EndoDate, DateReferred, LastPaymentDate,
	LoanMaturity, OldestDueDate, NextDueDate, RepricingDate,
}

// NumericColumns are cleaned to plain decimals in the daily flow.
var NumericColumns = []string{
	PastDue, PayoffAmount, Principal, Interest, LPC,
	Insurance, CUPayment, PremAmt, LPCYTD, Rate,
}

// RefreshColumns are overwritten on yesterday's active list from today's
// transaction export.
var RefreshColumns = []string{
	PastDue, PayoffAmount, Principal, Interest, LPC,
	Insurance, CUPayment, PremAmt, LastPaymentDate,
	ProdType, LPCYTD, Rate, RepricingDate, DPD, ADAShortage,
}

// NormalizeHeader trims and upper-cases a column name. NFKC folds the
// full-width and non-breaking variants spreadsheet exports sometimes carry.
func NormalizeHeader(name string) string {
	name = norm.NFKC.String(name)
	return strings.ToUpper(strings.TrimSpace(name))
}

// NormalizeKey canonicalises an account key. It is idempotent.
func NormalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

func Contains(columns []string, column string) bool {
	for _, c := range columns {
		if c == column {
			return true
		}
	}
	return false
}
