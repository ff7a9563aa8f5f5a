package domain

import "strings"

// TicketRequest is an inbound support request as submitted by the caller.
// It is a value type; the pipeline never mutates it.
type TicketRequest struct {
	RequesterID string
	Subject     string
	Body        string
	Category    string
}

// Text renders the ticket for the classifier and retrieval stages using the
// fixed template "<subject>\n\n<body>". Blank parts are omitted.
func (t TicketRequest) Text() string {
	subject := strings.TrimSpace(t.Subject)
	body := strings.TrimSpace(t.Body)
	switch {
	case subject == "":
		return body
	case body == "":
		return subject
	default:
		return subject + "\n\n" + body
	}
}

// DeclaredCategory returns the caller supplied category, normalized.
func (t TicketRequest) DeclaredCategory() string {
	return NormalizeCategory(t.Category)
}

// NormalizeCategory lower-cases and trims a category identifier.
func NormalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// Categories inferred by the classifier.
const (
	CategoryHardwareIssue  = "hardware_issue"
	CategorySoftwareIssue  = "software_issue"
	CategoryNetworkIssue   = "network_issue"
	CategoryAccessRequest  = "access_request"
	CategoryPolicyQuestion = "policy_question"
	CategoryOffScope       = "off_scope"
	CategoryAmbiguous      = "ambiguous"
)
