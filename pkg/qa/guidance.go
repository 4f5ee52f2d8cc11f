package qa

import (
	"fmt"
	"strings"
)

// AdaptiveGuidance builds a deterministic guidance answer for a question
// without calling any model. It is the last line of degradation: whatever
// happens upstream, the caller always has something presentable to show.
func AdaptiveGuidance(question string) string {
	subject := "your request"
	if trimmed := strings.TrimSpace(question); trimmed != "" {
		subject = fmt.Sprintf("%q", trimmed)
	}

	normalized := strings.ToLower(question)
	contains := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(normalized, w) {
				return true
			}
		}
		return false
	}

	var tips []string
	switch {
	case contains("오류", "에러", "error", "failed", "fail"):
		tips = []string{
			"Include the full error message and when it first appeared; that narrows down the cause quickly.",
			"Check for recent changes: configuration, deployments, or permission updates.",
			"See whether the same problem shows up for another account or machine to narrow the scope.",
		}
	case contains("방법", "how", "설정", "steps"):
		tips = []string{
			"Write down the end goal in one or two sentences first.",
			"Note how far you got and where you are stuck, step by step.",
			"Share the exact screen or menu names, or a manual link, if you have one.",
		}
	case contains("정책", "규정", "policy", "승인", "보안", "approval"):
		tips = []string{
			"Check the scope it applies to (team, organization, period) and whether exceptions exist.",
			"If a newer revision of the document was announced, re-check against that version.",
			"Listing the approval steps and the owning department speeds up any follow-up request.",
		}
	case contains("권한", "계정", "로그인", "접근", "access", "login", "account"):
		tips = []string{
			"Name the exact system or page you are trying to reach.",
			"Check for a recent password change, account lock, or SSO change.",
			"Have an account identifier (email or employee number) ready for the administrator.",
		}
	default:
		tips = []string{
			"A short note on the background and the result you want makes the answer more precise.",
			"Naming the related systems, documents, or teams improves answer quality.",
			"Feel free to follow up with anything else you are wondering about.",
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here is some guidance you can use right away for %s:\n", subject)
	for i, tip := range tips {
		fmt.Fprintf(&b, "%d) %s\n", i+1, tip)
	}
	b.WriteString("Pick whichever of these is useful to you.")
	return b.String()
}
