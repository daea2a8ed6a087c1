// Package prompts builds the deterministic prompt strings sent to the model
// chain. Every builder is a pure function: identical inputs always produce an
// identical prompt, with no timestamps or randomness embedded.
package prompts

import (
	"fmt"
	"strings"
)

// Mode identifies which prompt template a request uses.
type Mode string

const (
	ModeGeneral    Mode = "general"
	ModeSpecialist Mode = "specialist"
	ModeFollowup   Mode = "followup"
)

// Inputs carries the fields a template can draw on. Required per mode:
// general needs Report and Query; specialist needs Specialty and Report;
// followup needs Query. History is optional everywhere.
type Inputs struct {
	Report    string
	History   string
	Query     string
	Specialty Specialty
}

// Build dispatches to the template for mode after checking its required
// inputs. A specialist or general prompt without an ingested report is a
// caller error, surfaced here before any model invocation.
func Build(mode Mode, in Inputs) (string, error) {
	switch mode {
	case ModeGeneral:
		if strings.TrimSpace(in.Report) == "" {
			return "", fmt.Errorf("%s prompt requires an ingested report", mode)
		}
		if strings.TrimSpace(in.Query) == "" {
			return "", fmt.Errorf("%s prompt requires a query", mode)
		}
		return General(in.Report, in.History, in.Query), nil
	case ModeSpecialist:
		if in.Specialty.Name == "" {
			return "", fmt.Errorf("%s prompt requires a specialty", mode)
		}
		if strings.TrimSpace(in.Report) == "" {
			return "", fmt.Errorf("%s prompt requires an ingested report", mode)
		}
		return Specialist(in.Specialty, in.Report, in.History), nil
	case ModeFollowup:
		if strings.TrimSpace(in.Query) == "" {
			return "", fmt.Errorf("%s prompt requires a question", mode)
		}
		return Followup(in.Query), nil
	}
	return "", fmt.Errorf("unknown prompt mode %q", mode)
}

// HistoryMarker is embedded verbatim when the patient supplied no history.
const HistoryMarker = "Not provided"

// HealthProbe is the fixed token used to probe the chain from /health.
const HealthProbe = "ping"

// General composes the ingest-time prompt: report, history (or the explicit
// marker), and the patient's query, in that fixed order.
func General(report, history, query string) string {
	if strings.TrimSpace(history) == "" {
		history = HistoryMarker
	}
	return "Here is a patient's medical report:\n\n" + report + "\n\n" +
		"Patient's medical history: " + history + "\n\n" +
		"Patient's query: " + query
}

// Specialty configures a specialist re-interpretation. Checklist lines tell the
// model which parameters count as relevant; the NoFindings fields are the fixed
// narrative it must fill the schema with when nothing relevant appears.
type Specialty struct {
	Name      string
	Checklist []string

	NoFindingsOverview  string
	NoFindingsGoodNews  string
	NoFindingsNextSteps string
	NoFindingsWorry     string
	NoFindingsTake      string
}

// Cardiology is the shipped specialist view.
var Cardiology = Specialty{
	Name: "cardiology",
	Checklist: []string{
		"- **Blood Tests**: Lipid profile, cholesterol, LDL, HDL, triglycerides, VLDL, cardiac enzymes (Troponin, CK-MB, NT-proBNP), electrolytes affecting heart (sodium/potassium), hemoglobin/anemia markers, etc.",
		"- **Imaging**: ECG, Echo, cardiac MRI, stress tests, etc.",
		"- **Specialized**: Heart rate, blood pressure, cardiac function tests, etc.",
	},
	NoFindingsOverview:  "No cardiology-relevant parameters were found in this report.",
	NoFindingsGoodNews:  "Your report does not show any cardiology-related concerns.",
	NoFindingsNextSteps: "No cardiac-specific action needed based on this report. Please continue routine check-ups as advised by your physician.",
	NoFindingsWorry:     "No immediate concerns related to heart health from this report.",
	NoFindingsTake:      "Great news! This report doesn't flag any heart-related issues.",
}

// Specialist composes the specialist-view prompt for an already-ingested
// report. The JSON schema description is part of the external contract:
// consumers depend on these field names literally, so they must never drift.
func Specialist(sp Specialty, report, history string) string {
	var b strings.Builder
	b.WriteString("Medical Report:\n")
	b.WriteString(report)
	b.WriteString("\n\n")
	if strings.TrimSpace(history) != "" {
		b.WriteString("Patient Medical History:\n")
		b.WriteString(history)
		b.WriteString("\n\n")
	}
	combined := b.String()

	return strings.Join([]string{
		"You are Meddy, an AI assistant specialized in " + sp.Name + ".",
		"",
		"**CRITICAL FIRST STEP: Check for Relevance**",
		"Before analyzing, you MUST first determine if this report contains ANY " + sp.Name + "-relevant parameters:",
		strings.Join(sp.Checklist, "\n"),
		"",
		"Task:",
		"- Extract **only " + sp.Name + "-relevant parameters** from the report",
		"- Include both **normal and abnormal values**",
		"- If **no " + sp.Name + "-relevant parameters** are present in the report, return the JSON with:",
		"    - greeting (with patient name if available)",
		"    - overview: \"" + sp.NoFindingsOverview + "\"",
		"    - abnormalities: \"None detected.\"",
		"    - abnormalParameters: []  (empty array)",
		"    - patient'sInsights: []  (empty array)",
		"    - theGoodNews: \"" + sp.NoFindingsGoodNews + "\"",
		"    - clearNextSteps: \"" + sp.NoFindingsNextSteps + "\"",
		"    - whenToWorry: \"" + sp.NoFindingsWorry + "\"",
		"    - meddysTake: \"" + sp.NoFindingsTake + "\"",
		"- Return data strictly in the following JSON structure:",
		"",
		`{`,
		`  "greeting": "Hello [Patient Name], here is the interpretation of your report from a ` + sp.Name + ` perspective.",`,
		`  "overview": "A concise summary of health from the report.",`,
		`  "abnormalities": "A sentence introducing abnormal findings (if any).",`,
		`  "abnormalParameters": [`,
		`    {`,
		`      "name": "Parameter name",`,
		`      "value": "Observed value",`,
		`      "range": "Reference range",`,
		`      "status": "high/low/normal",`,
		`      "description": "Specialty-specific explanation."`,
		`    }`,
		`  ],`,
		`  "patient'sInsights": [`,
		`    "Bullet point insights explained simply for the patient."`,
		`  ],`,
		`  "theGoodNews": "Positive findings (normal values).",`,
		`  "clearNextSteps": "Actionable suggestions to improve/maintain health.",`,
		`  "whenToWorry": "Red flag symptoms or when immediate consultation is required.",`,
		`  "meddysTake": "Friendly encouraging comment from Meddy."`,
		`}`,
		"",
		"Medical Report + History (extract only relevant info):",
		combined,
	}, "\n")
}

// Followup composes the follow-up prompt. The chain owns conversational memory,
// so the earlier report is never re-injected here; the rules steer the model to
// answer from that memory by value only.
func Followup(question string) string {
	return "You have already analyzed and summarized the patient's medical report earlier. " +
		"Now the patient is asking a follow-up question related to that summary.\n\n" +
		"First, detect the intent behind the follow-up:\n" +
		"- If it's a greeting like 'hello', 'hi', or 'hey': respond briefly and kindly, no summary.\n" +
		"- If it's a goodbye like 'bye', 'see you', 'thanks': reply warmly and say you're here if they need anything.\n" +
		"- If it's a real question (like about cholesterol or vitamin D): respond specifically based on the earlier medical report summary.\n\n" +
		"Important Rules:\n" +
		"- DO NOT repeat the full medical summary again.\n" +
		"- Keep your answers short, clear, and human. No essays.\n" +
		"- Use simple, everyday language, as if explaining to someone without a medical background.\n" +
		"- Refer to exact values if needed (e.g., 'your LDL was 119 mg/dL').\n" +
		"- Be warm, friendly, and professional.\n" +
		"- Personalize the answer if the patient's name is known.\n\n" +
		"Follow-up question from the patient: " + question
}
