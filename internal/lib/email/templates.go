package email

import (
	"embed"
	"html/template"
)

// Template names an embedded HTML template under templates/.
type Template string

const (
	TemplateLeaseRenewed     Template = "lease_renewed"
	TemplateLeaseExpiring    Template = "lease_expiring"
	TemplateLeaseExpired     Template = "lease_expired"
	TemplateDriverWelcome    Template = "driver_welcome"
	TemplateComplianceDigest Template = "compliance_digest"
)

// Subjects holds the default subject line of each template.
var Subjects = map[Template]string{
	TemplateLeaseRenewed:     "Your lease has been renewed",
	TemplateLeaseExpiring:    "Your lease is ending soon",
	TemplateLeaseExpired:     "Your lease has ended",
	TemplateDriverWelcome:    "Welcome to the fleet",
	TemplateComplianceDigest: "Compliance items due",
}

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Known reports whether name is an embedded template.
func Known(name Template) bool {
	_, ok := Subjects[name]
	return ok
}
