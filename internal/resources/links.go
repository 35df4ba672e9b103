// Package resources maps known HR keyword phrases to canonical intranet
// URLs and renders the matches as a markdown block appended to answers.
package resources

import (
	"fmt"
	"strings"
)

// Link is one entry in the static keyword table. Keywords are matched by
// substring containment; Title and URL are what the employee sees.
type Link struct {
	Keywords []string
	Title    string
	URL      string
}

const (
	linksHeader = "**Helpful Resources:**"
	maxLinks    = 3
)

// DefaultLinks is the table loaded at process start. Order matters: earlier
// entries win when the link budget is exhausted.
func DefaultLinks() []Link {
	return []Link{
		{Keywords: []string{"health insurance", "medical plan"}, Title: "Health Insurance", URL: "https://valleywater.org/employee/benefits/health-insurance"},
		{Keywords: []string{"dental insurance", "dental"}, Title: "Dental Insurance", URL: "https://valleywater.org/employee/benefits/dental-insurance"},
		{Keywords: []string{"vision insurance", "vision care"}, Title: "Vision Insurance", URL: "https://valleywater.org/employee/benefits/vision-care"},
		{Keywords: []string{"retirement", "401k", "pension"}, Title: "Retirement Plans", URL: "https://valleywater.org/employee/benefits/retirement-plans"},
		{Keywords: []string{"vacation", "paid time off", "pto"}, Title: "Vacation & PTO", URL: "https://valleywater.org/employee/time-off/vacation"},
		{Keywords: []string{"sick leave"}, Title: "Sick Leave", URL: "https://valleywater.org/employee/time-off/sick-leave"},
		{Keywords: []string{"parental leave", "maternity", "paternity"}, Title: "Parental Leave", URL: "https://valleywater.org/employee/time-off/parental-leave"},
		{Keywords: []string{"remote work", "telework", "work from home"}, Title: "Telework Policy", URL: "https://valleywater.org/employee/policies/telework"},
		{Keywords: []string{"expense", "reimbursement"}, Title: "Expense Reimbursement", URL: "https://valleywater.org/employee/procedures/expense-reimbursement"},
		{Keywords: []string{"payroll", "paycheck", "direct deposit"}, Title: "Payroll", URL: "https://valleywater.org/employee/compensation/payroll"},
		{Keywords: []string{"training", "tuition", "professional development"}, Title: "Professional Development", URL: "https://valleywater.org/employee/career/professional-development"},
	}
}

// Resolver finds resource links relevant to a question/answer pair.
type Resolver struct {
	links []Link
}

// NewResolver builds a Resolver over the given table; a nil table uses
// DefaultLinks. The table is read-only after construction.
func NewResolver(links []Link) *Resolver {
	if links == nil {
		links = DefaultLinks()
	}
	return &Resolver{links: links}
}

// Relevant returns a markdown bullet list of at most three links whose
// keywords appear in the question or answer, or "" when nothing matches.
// Matching preserves table order and de-duplicates by URL, so the result
// is deterministic for a given input pair.
func (r *Resolver) Relevant(question, answer string) string {
	combined := strings.ToLower(question + " " + answer)

	seen := make(map[string]struct{})
	var matched []Link
	for _, link := range r.links {
		if _, dup := seen[link.URL]; dup {
			continue
		}
		for _, kw := range link.Keywords {
			if strings.Contains(combined, strings.ToLower(kw)) {
				matched = append(matched, link)
				seen[link.URL] = struct{}{}
				break
			}
		}
	}
	if len(matched) == 0 {
		return ""
	}
	if len(matched) > maxLinks {
		matched = matched[:maxLinks]
	}

	var sb strings.Builder
	sb.WriteString(linksHeader + "\n")
	for _, link := range matched {
		sb.WriteString(fmt.Sprintf("* [%s](%s)\n", link.Title, link.URL))
	}
	return sb.String()
}
