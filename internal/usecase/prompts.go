// Package usecase contains the screening pipeline stages and their
// orchestration.
package usecase

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/resume-screener/internal/config"
)

// Prompt builders. Every stage instructs the model to return bare JSON or a
// bare integer; the response cleaner absorbs the cases where it does not.

const extractionSystemPrompt = `You are a resume parser. Extract structured data from the resume text you are given.
Respond with ONLY a JSON object using exactly these keys:
name, email, phone, education (array of {degree, institution, start_year, end_year, concentration, gpa, coursework}),
skills (array of strings), experience (array of {title, duration, location, description}),
projects (array of {title, link, description}), certificates, achievements, memberships, campus_involvement.
Omit keys you cannot fill. Never invent values that are not present in the text.`

const insightsSystemPrompt = `You are a project analyst. From the README you are given, extract what the project is.
Respond with ONLY a JSON object using exactly these keys:
purpose, key_features, technologies_used, target_users, project_challenges, business_value, future_scope, design_considerations, interview_questions.
Arrays of strings for list keys. Omit keys the README does not support.`

const narrativeFeedbackSystemPrompt = `You are a supportive recruiter writing rejection feedback.
Reference the candidate's concrete skill, experience, education and project gaps against the job description
and give 2-3 specific improvement suggestions. Be encouraging. Never mention any numeric score.`

const narrativeSelectionSystemPrompt = `You are a recruiter writing a selection rationale.
Cite the candidate's strongest attributes that match the job description. Be concrete and concise.`

const gradingSystemPrompt = `You are a technical answer grader. Compare the candidate's answer with the ideal answer for the question.
Respond with ONLY a JSON object: {"score": <integer 0-10>, "feedback": "<short explanation>"}.`

// evaluationSystemPrompt bakes the rubric weights into the instruction text;
// the weighting is modeled, not enforced in code. The zero-score override for
// non-resume content is likewise a modeled instruction.
func evaluationSystemPrompt(r config.Rubric) string {
	return fmt.Sprintf(`You are a hiring evaluator. Score how well the candidate resume fits the job description on a 0-100 scale.
Weigh the dimensions as: skills match %d, relevant experience %d, education %d, projects %d, bonus signals (certificates, achievements, involvement) %d.
If the resume is malformed, irrelevant, or not recognizable as resume content, the score MUST be 0.
Respond with ONLY the integer score. No words, no punctuation.`,
		r.WeightSkills, r.WeightExperience, r.WeightEducation, r.WeightProjects, r.WeightBonus)
}

func examSystemPrompt(n int) string {
	return fmt.Sprintf(`You are a technical examiner. Write exactly %d technical interview questions for the job description you are given.
Respond with ONLY a JSON object: {"questions": [{"id": "q1", "text": "...", "ideal_answer": "..."}, ...]}.
Each id must be unique. Keep each ideal_answer to one or two sentences.`, n)
}

func extractionUserPrompt(resumeText string) string {
	return "Resume text:\n" + resumeText
}

func insightsUserPrompt(readme string) string {
	return "README:\n" + readme
}

func evaluationUserPrompt(resumeJSON, jobDescription string) string {
	var b strings.Builder
	b.WriteString("Job description:\n")
	b.WriteString(jobDescription)
	b.WriteString("\n\nCandidate resume (structured):\n")
	b.WriteString(resumeJSON)
	return b.String()
}

func narrativeUserPrompt(resumeJSON, jobDescription string) string {
	var b strings.Builder
	b.WriteString("Job description:\n")
	b.WriteString(jobDescription)
	b.WriteString("\n\nCandidate resume (structured):\n")
	b.WriteString(resumeJSON)
	return b.String()
}

func examUserPrompt(jobDescription string) string {
	return "Job description:\n" + jobDescription
}

func gradingUserPrompt(jobDescription, question, idealAnswer, answer string) string {
	var b strings.Builder
	b.WriteString("Job description:\n")
	b.WriteString(jobDescription)
	b.WriteString("\n\nQuestion:\n")
	b.WriteString(question)
	b.WriteString("\n\nIdeal answer:\n")
	b.WriteString(idealAnswer)
	b.WriteString("\n\nCandidate answer:\n")
	b.WriteString(answer)
	return b.String()
}
