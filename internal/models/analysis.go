package models

type AnalysisStatus string

const (
	AnalysisSuccess AnalysisStatus = "success"
	AnalysisError   AnalysisStatus = "error"
)

// UploadRequest is the multipart body of an analyze call.
type UploadRequest struct {
	FileName       string
	Content        []byte
	JobDescription string
}

// AnalyzeResponse is a tagged union on Status: success carries the
// markdown report in Result, anything else carries Message.
type AnalyzeResponse struct {
	Status  AnalysisStatus `json:"status"`
	Result  string         `json:"result,omitempty"`
	Message string         `json:"message,omitempty"`
}

func (r *AnalyzeResponse) Succeeded() bool {
	return r.Status == AnalysisSuccess
}

type ErrorResponse struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message"`
}

type ReportKind string

const (
	ReportStructure ReportKind = "structure"
	ReportRelevance ReportKind = "relevance"
	ReportLanguage  ReportKind = "language"
	ReportPower     ReportKind = "power"
	ReportFull      ReportKind = "report"
)

// ReportLink is one of the fixed downloadable reports offered with a
// successful analysis.
type ReportLink struct {
	Kind     ReportKind
	Label    string
	Path     string
	FileName string
}

// ReportLinks returns the five report links in display order.
func ReportLinks() []ReportLink {
	return []ReportLink{
		{Kind: ReportStructure, Label: "Structure Report", Path: "/api/structure", FileName: "structure.md"},
		{Kind: ReportRelevance, Label: "Relevance Report", Path: "/api/relevance", FileName: "relevance.md"},
		{Kind: ReportLanguage, Label: "Language Report", Path: "/api/language", FileName: "language.md"},
		{Kind: ReportPower, Label: "Power Report", Path: "/api/power", FileName: "power.md"},
		{Kind: ReportFull, Label: "Full Report", Path: "/api/report", FileName: "full_report.md"},
	}
}
