package abap

import (
	"regexp"
	"sort"
)

// fieldPattern matches SAP-style technical identifiers: runs of uppercase
// letters, digits and underscores, four characters or longer.
var fieldPattern = regexp.MustCompile(`\b[A-Z0-9_]{4,}\b`)

// abapKeywords are language keywords and common statement words excluded
// from field extraction.
var abapKeywords = map[string]struct{}{
	"SELECT": {}, "FROM": {}, "WHERE": {}, "TABLE": {}, "BEGIN": {},
	"END": {}, "LOOP": {}, "WRITE": {}, "DATA": {}, "TYPE": {},
	"INTO": {}, "PERFORM": {}, "MODULE": {}, "REPORT": {}, "CLASS": {},
	"METHOD": {}, "IF": {}, "ELSE": {}, "ENDIF": {}, "EXPORTING": {},
	"IMPORTING": {}, "CLEAR": {}, "APPEND": {}, "READ": {}, "OPEN": {},
	"CLOSE": {}, "FIELDS": {}, "SET": {}, "GET": {}, "FIELD": {},
	"MOVE": {}, "SECTION": {}, "ABAP": {}, "PROGRAM": {}, "ZPROGRAM": {},
}

// ExtractFields pulls likely SAP field names out of text, keyword-filtered,
// deduplicated and sorted. Pure numbers are never fields.
func ExtractFields(text string) []string {
	seen := make(map[string]struct{})
	fields := []string{}
	for _, f := range fieldPattern.FindAllString(text, -1) {
		if _, ok := abapKeywords[f]; ok {
			continue
		}
		if allDigits(f) {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FieldComparison reports how the fields named in the requirement text map
// onto the generated code.
type FieldComparison struct {
	Matched []string `json:"matched_fields"`
	Missing []string `json:"missing_fields"`
	Extra   []string `json:"extra_fields"`

	RequirementFields []string `json:"requirement_fields"`
	CodeFields        []string `json:"code_fields"`
}

// CompareFields extracts fields from the requirement text and the ABAP code
// and classifies each as matched, missing from the code, or extra to it.
func CompareFields(requirements, code string) *FieldComparison {
	reqFields := ExtractFields(requirements)
	codeFields := ExtractFields(code)

	inCode := make(map[string]struct{}, len(codeFields))
	for _, f := range codeFields {
		inCode[f] = struct{}{}
	}
	inReq := make(map[string]struct{}, len(reqFields))
	for _, f := range reqFields {
		inReq[f] = struct{}{}
	}

	cmp := &FieldComparison{
		Matched:           []string{},
		Missing:           []string{},
		Extra:             []string{},
		RequirementFields: reqFields,
		CodeFields:        codeFields,
	}
	for _, f := range reqFields {
		if _, ok := inCode[f]; ok {
			cmp.Matched = append(cmp.Matched, f)
		} else {
			cmp.Missing = append(cmp.Missing, f)
		}
	}
	for _, f := range codeFields {
		if _, ok := inReq[f]; !ok {
			cmp.Extra = append(cmp.Extra, f)
		}
	}
	return cmp
}
