package gemini

import "strings"

const extractionPrompt = `Extract the following information from the provided resume text and return it as a pure JSON object:
{
    "name": "",
    "email": "",
    "education": {
        "degree": "",
        "branch": "",
        "institution": "",
        "year": null
    },
    "experience": {
        "job_title": "",
        "company": ""
    },
    "skills": [],
    "summary": ""
}

Return ONLY a valid JSON object, and nothing else. Do not include any surrounding text. Do not include any markdown. Do not include any explanations. Do not include any introductory phrases. If any information is not found, leave the corresponding field blank or null, as appropriate. The summary should be a short description of the candidate's profile, generated based on the resume data.`

// BuildPrompt creates the full extraction prompt for one resume.
func BuildPrompt(rawText string) string {
	var sb strings.Builder
	sb.WriteString(extractionPrompt)
	sb.WriteString("\n\nResume Text:\n")
	sb.WriteString(rawText)
	return sb.String()
}
