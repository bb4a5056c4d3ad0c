// Package abap turns sectioned requirement documents into ABAP report
// programs. The unit path generates the program one unit at a time with the
// code of earlier units as prompt context; the whole-document path drafts
// the full program in one pass and refines it. Both paths finish with field
// analysis and an LLM coverage review of the result.
package abap

// Program unit keys, in generation and assembly order.
const (
	UnitGlobalDeclaration = "global_declaration"
	UnitSelectionScreen   = "selection_screen"
	UnitProcessingLogic   = "processing_logic"
	UnitOutputDisplay     = "output_display"
)

// UnitOrder fixes the order units are generated and assembled in. Later
// units see the code of earlier ones in their prompt.
var UnitOrder = []string{
	UnitGlobalDeclaration,
	UnitSelectionScreen,
	UnitProcessingLogic,
	UnitOutputDisplay,
}

// UnitMapping assigns each program unit the canonical section labels whose
// bodies make up its requirement text. Labels follow the canonical header
// form produced by the section package ("SECTION: N. Title").
type UnitMapping map[string][]string

// DefaultUnitMapping reflects the standard requirement document layout.
// Several sections feed more than one unit: the user interface section, for
// example, shapes the selection screen, the declarations behind it, and the
// output.
var DefaultUnitMapping = UnitMapping{
	UnitSelectionScreen: {"SECTION: 4. User Interface"},
	UnitGlobalDeclaration: {
		"SECTION: 4. User Interface",
		"SECTION: 5. Technical Architecture",
	},
	UnitProcessingLogic: {
		"SECTION: 1. Purpose",
		"SECTION: 2. Scope",
		"SECTION: 3. Functional Requirements",
		"SECTION: 4. User Interface",
		"SECTION: 5. Technical Architecture",
		"SECTION: 6. Error Handling",
		"SECTION: 7. Performance Notes",
		"SECTION: 8. Authorization",
		"SECTION: 9. Sample Report Output Layouts",
		"SECTION: 10. Unit Test Plan",
	},
	UnitOutputDisplay: {
		"SECTION: 4. User Interface",
		"SECTION: 5. Technical Architecture",
		"SECTION: 6. Error Handling",
		"SECTION: 7. Performance Notes",
		"SECTION: 9. Sample Report Output Layouts",
		"SECTION: 10. Unit Test Plan",
	},
}
