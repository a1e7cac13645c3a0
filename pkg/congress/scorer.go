package congress

import (
	"math"
	"strings"
)

// Bill status values derived from latest-action text.
const (
	StatusIntroduced = "introduced"
	StatusCommittee  = "committee"
	StatusFloor      = "floor"
	StatusPassedOne  = "passed_one"
	StatusPassedBoth = "passed_both"
	StatusEnacted    = "enacted"
	StatusVetoed     = "vetoed"
)

// BipartisanScore is the symmetric ratio of minority-party to
// majority-party cosponsor counts, rounded to two decimals. A bill with
// zero cosponsors from either party scores 0, not NaN.
func BipartisanScore(rCount, dCount int) float64 {
	if rCount == 0 || dCount == 0 {
		return 0
	}
	lo, hi := float64(rCount), float64(dCount)
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Round(lo/hi*100) / 100
}

// DeriveBillStatus classifies a bill's legislative stage from its latest
// action text. Substring checks are ordered: an enacted bill's action
// history also contains "passed senate", so enactment phrasing must win.
func DeriveBillStatus(latestActionText string) string {
	if latestActionText == "" {
		return StatusIntroduced
	}
	text := strings.ToLower(latestActionText)

	switch {
	case strings.Contains(text, "became public law") || strings.Contains(text, "signed by president"):
		return StatusEnacted
	case strings.Contains(text, "vetoed"):
		return StatusVetoed
	case strings.Contains(text, "passed senate") && strings.Contains(text, "passed house"):
		return StatusPassedBoth
	case strings.Contains(text, "received in the senate") || strings.Contains(text, "received in the house"):
		return StatusPassedOne
	case strings.Contains(text, "passed house") || strings.Contains(text, "passed senate"):
		return StatusPassedOne
	case strings.Contains(text, "placed on") || strings.Contains(text, "motion to proceed"):
		return StatusFloor
	case strings.Contains(text, "reported") || strings.Contains(text, "ordered to be reported"):
		return StatusCommittee
	case strings.Contains(text, "referred to"):
		return StatusIntroduced
	}

	return StatusIntroduced
}

// IsAdvancedBill reports whether the bill has moved past introduction.
func IsAdvancedBill(latestActionText string) bool {
	switch DeriveBillStatus(latestActionText) {
	case StatusCommittee, StatusFloor, StatusPassedOne, StatusPassedBoth, StatusEnacted:
		return true
	}
	return false
}

// billTypeLabels maps lowercase bill types to their display prefixes.
var billTypeLabels = map[string]string{
	"hr":      "H.R.",
	"s":       "S.",
	"hjres":   "H.J.Res.",
	"sjres":   "S.J.Res.",
	"hconres": "H.Con.Res.",
	"sconres": "S.Con.Res.",
	"hres":    "H.Res.",
	"sres":    "S.Res.",
}

// FormatBillID renders a human-readable bill identifier such as "H.R. 1234".
func FormatBillID(billType, number string) string {
	label, ok := billTypeLabels[strings.ToLower(billType)]
	if !ok {
		label = strings.ToUpper(billType)
	}
	return label + " " + number
}
