package rewrite

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are an expert SEO content editor. " +
	"Rewrite articles to be well-structured, clear, professional, " +
	"and optimized for search engines. Do not plagiarize."

const userPromptTemplate = `Rewrite the following article using the reference articles only for tone,
structure, and depth. Do not copy content.

ORIGINAL ARTICLE:
%s

REFERENCE ARTICLE 1:
%s

REFERENCE ARTICLE 2:
%s

At the end, add a section titled "References" and list:
%s
`

func buildUserPrompt(original, ref1, ref2 string, links []string) string {
	return fmt.Sprintf(userPromptTemplate, original, ref1, ref2, formatReferenceList(links))
}

func formatReferenceList(links []string) string {
	var b strings.Builder
	for _, link := range links {
		b.WriteString("- ")
		b.WriteString(link)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
