package prompts

import (
	"strings"
	"testing"
)

func TestGeneralOrderAndHistoryMarker(t *testing.T) {
	report := "LDL: 119 mg/dL\n\nHDL: 45 mg/dL"
	p := General(report, "", "Please explain this report.")

	if !strings.Contains(p, report) {
		t.Fatalf("prompt missing report text")
	}
	if !strings.Contains(p, "Patient's medical history: "+HistoryMarker) {
		t.Fatalf("empty history must use the %q marker, got:\n%s", HistoryMarker, p)
	}
	// Fixed order: report, then history, then query.
	iReport := strings.Index(p, report)
	iHistory := strings.Index(p, "Patient's medical history:")
	iQuery := strings.Index(p, "Patient's query: Please explain this report.")
	if !(iReport < iHistory && iHistory < iQuery) {
		t.Fatalf("sections out of order: report=%d history=%d query=%d", iReport, iHistory, iQuery)
	}
}

func TestGeneralKeepsProvidedHistory(t *testing.T) {
	p := General("report", "Diabetic, on metformin", "query")
	if strings.Contains(p, HistoryMarker) {
		t.Fatalf("marker must not appear when history is provided")
	}
	if !strings.Contains(p, "Diabetic, on metformin") {
		t.Fatalf("history text missing from prompt")
	}
}

func TestPromptsAreDeterministic(t *testing.T) {
	if General("r", "h", "q") != General("r", "h", "q") {
		t.Fatal("General is not deterministic")
	}
	if Specialist(Cardiology, "r", "h") != Specialist(Cardiology, "r", "h") {
		t.Fatal("Specialist is not deterministic")
	}
	if Followup("q") != Followup("q") {
		t.Fatal("Followup is not deterministic")
	}
}

// The schema field names are the external contract; consumers parse them
// literally, so the prompt must spell out every one of them.
func TestSpecialistSchemaFields(t *testing.T) {
	p := Specialist(Cardiology, "LDL: 119 mg/dL", "")
	for _, field := range []string{
		`"greeting"`,
		`"overview"`,
		`"abnormalities"`,
		`"abnormalParameters"`,
		`"name"`, `"value"`, `"range"`, `"status"`, `"description"`,
		`"patient'sInsights"`,
		`"theGoodNews"`,
		`"clearNextSteps"`,
		`"whenToWorry"`,
		`"meddysTake"`,
	} {
		if !strings.Contains(p, field) {
			t.Fatalf("specialist prompt missing schema field %s", field)
		}
	}
}

func TestSpecialistRelevanceGatingAndNoFindings(t *testing.T) {
	p := Specialist(Cardiology, "report text", "history text")
	if !strings.Contains(p, "CRITICAL FIRST STEP") {
		t.Fatalf("missing relevance-gating instruction")
	}
	// The fixed no-findings narrative keeps every field populated even when
	// nothing relevant is present.
	for _, line := range []string{
		Cardiology.NoFindingsOverview,
		Cardiology.NoFindingsGoodNews,
		Cardiology.NoFindingsNextSteps,
		Cardiology.NoFindingsWorry,
		Cardiology.NoFindingsTake,
		"None detected.",
	} {
		if !strings.Contains(p, line) {
			t.Fatalf("specialist prompt missing no-findings narrative line %q", line)
		}
	}
	if !strings.Contains(p, "report text") || !strings.Contains(p, "history text") {
		t.Fatalf("report/history not embedded")
	}
}

func TestSpecialistOmitsEmptyHistoryBlock(t *testing.T) {
	p := Specialist(Cardiology, "report text", "  ")
	if strings.Contains(p, "Patient Medical History:") {
		t.Fatalf("empty history must not produce a history block")
	}
}

func TestBuildDispatchesPerMode(t *testing.T) {
	in := Inputs{Report: "LDL: 119 mg/dL", History: "smoker", Query: "Explain this.", Specialty: Cardiology}

	if p, err := Build(ModeGeneral, in); err != nil || p != General(in.Report, in.History, in.Query) {
		t.Fatalf("general dispatch mismatch: err=%v", err)
	}
	if p, err := Build(ModeSpecialist, in); err != nil || p != Specialist(Cardiology, in.Report, in.History) {
		t.Fatalf("specialist dispatch mismatch: err=%v", err)
	}
	if p, err := Build(ModeFollowup, in); err != nil || p != Followup(in.Query) {
		t.Fatalf("followup dispatch mismatch: err=%v", err)
	}
}

// Building a general or specialist prompt without an ingested report is a
// caller error, rejected before any invocation.
func TestBuildRequiredInputs(t *testing.T) {
	cases := []struct {
		name string
		mode Mode
		in   Inputs
	}{
		{"general without report", ModeGeneral, Inputs{Query: "q"}},
		{"general without query", ModeGeneral, Inputs{Report: "r"}},
		{"specialist without report", ModeSpecialist, Inputs{Specialty: Cardiology}},
		{"specialist without specialty", ModeSpecialist, Inputs{Report: "r"}},
		{"followup without question", ModeFollowup, Inputs{}},
		{"unknown mode", Mode("dermatology"), Inputs{Report: "r", Query: "q"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Build(tc.mode, tc.in); err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
		})
	}
}

func TestFollowupRulesAndQuestion(t *testing.T) {
	p := Followup("What does my LDL mean?")
	if !strings.HasSuffix(p, "Follow-up question from the patient: What does my LDL mean?") {
		t.Fatalf("question must be appended last, got:\n%s", p)
	}
	for _, rule := range []string{
		"detect the intent",
		"DO NOT repeat the full medical summary",
		"Refer to exact values if needed",
	} {
		if !strings.Contains(p, rule) {
			t.Fatalf("follow-up prompt missing rule %q", rule)
		}
	}
}
