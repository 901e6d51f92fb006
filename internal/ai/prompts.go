package ai

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptSet holds every instruction text sent to the model. Defaults are
// compiled in; a YAML file may override any subset of fields.
type PromptSet struct {
	AnalysisSystem   string `yaml:"analysis_system"`
	AnalysisTemplate string `yaml:"analysis_template"`
	ResponseSchema   string `yaml:"response_schema"`
	ReceiptCaption   string `yaml:"receipt_caption"`
	ChatSystem       string `yaml:"chat_system"`
	ChatGreeting     string `yaml:"chat_greeting"`

	analysisTmpl *template.Template
}

const defaultAnalysisSystem = `You are an AI assistant specialized in detecting fraud and policy violations in corporate expense reports.
Your tasks are to analyze submitted expense reports, identify anomalies or suspicious activities, verify supporting documents (if provided), and generate clear, actionable summaries for reviewers.
When a receipt image is provided, analyze it for details like date, amount, vendor, and items purchased, and compare them with the reported expense. Flag if the receipt appears altered, duplicated, or inconsistent.
Analyze expense data for the employee, comparing to typical business practices to identify unusual or suspicious behavior (e.g., unusually high amounts, frequent claims from the same vendor, expenses outside business hours, or claims from unexpected locations).
Check each expense against the provided company policies. Flag any expenses that violate these policies.
Review text descriptions and justifications for suspicious language or inconsistencies. Extract key entities and analyze sentiment to detect evasive or unusual tones.
Assign a risk score to each expense based on anomaly detection, receipt verification (if applicable), and policy compliance.
For every flagged entry, provide a clear explanation of why it was flagged, referencing the specific anomalies or policy violations detected.
Respond ONLY with a JSON object adhering to the specified structure. Do not include any explanatory text before or after the JSON object itself. The JSON should be directly parsable.`

const defaultResponseSchema = `{
  "riskScore": "Low" | "Medium" | "High",
  "isFlagged": boolean,
  "summary": "Brief summary of findings, including key reasons for the risk score.",
  "policyViolations": [
    { "policy": "Description of violated policy (from provided list or general business practice if specific policy not listed but relevant)", "details": "How it was violated and specific part of expense" }
  ],
  "anomaliesDetected": [
    { "anomaly": "Description of anomaly (e.g., 'Unusually high amount for category', 'Expense outside business hours')", "details": "Supporting facts and comparison points if applicable" }
  ],
  "suspiciousLanguage": {
    "detected": boolean,
    "notes": "Observations on language or tone in the description, if any. Mention specific words or phrases if relevant."
  },
  "recommendedAction": "e.g., Approve, Request more documentation, Escalate for manual review, Deny claim"
}`

const defaultAnalysisTemplate = `Analyze the following expense report entry.
Expense Data:
- Employee: {{.Expense.EmployeeName}}
- Date: {{.Expense.Date}}
- Amount: {{.Amount}} {{.Expense.Currency}}
- Vendor: {{.Expense.Vendor}}
- Category: {{.Expense.Category}}
- Description: {{.Expense.Description}}
- Receipt Image: {{.ReceiptNote}}

Company Policies to consider:
{{.Policies}}

Please respond ONLY with a JSON object adhering to the following structure. Do not wrap it in markdown code fences or add any other text outside the JSON object itself.
{{.Schema}}
`

const defaultReceiptCaption = "The above image is the receipt for the expense described next. Please analyze it as part of your assessment."

const defaultChatSystem = `You are "App Guide", a friendly and helpful AI assistant for users of this Expense Reporting application.
Your primary role is to help users understand and navigate the features of this application.
You can explain:
- How to submit a new expense using the form.
- What information is needed for each field in the expense form.
- How to upload and manage receipt images (JPG, PNG, GIF or a PDF scan, up to 5MB).
- How to view and understand the expense history.
- How to interpret the AI analysis results (risk scores, policy violations, anomalies) displayed for each expense.
- How to download PDF or Excel reports of their expenses.
- How to switch between light and dark themes using the theme toggle.
- The purpose of the Summary Report shown with the form and the history.
- How to clear expense history.

You also have access to the company's expense policies (as configured in this app) and can answer questions about them.
For example, "What is the meal limit according to company policy?" or "What are the rules for travel expenses?".

IMPORTANT:
- Do NOT attempt to perform actions for the user (e.g., "submit this expense for me" or "change my theme"). Instead, guide them on how THEY can do it using the application's interface.
- Do NOT ask for or try to process specific expense amounts, dates, vendor names, or any personal identifiable information (PII) through this chat. Guide users to the main expense submission form for these actions.
- Keep your answers concise, clear, and focused on using THIS application.
- If a question is unrelated to this application or its expense policies, politely state that you can only help with queries about this expense reporting app and its policies.
Be friendly and professional.`

const defaultChatGreeting = "Hi there! I'm Expense Buddy. How can I help you with company expense policies or general queries today?"

// DefaultPrompts returns the built-in prompt set
func DefaultPrompts() *PromptSet {
	p := &PromptSet{
		AnalysisSystem:   defaultAnalysisSystem,
		AnalysisTemplate: defaultAnalysisTemplate,
		ResponseSchema:   defaultResponseSchema,
		ReceiptCaption:   defaultReceiptCaption,
		ChatSystem:       defaultChatSystem,
		ChatGreeting:     defaultChatGreeting,
	}
	if err := p.compile(); err != nil {
		panic(fmt.Sprintf("ai: default analysis template: %v", err))
	}
	return p
}

// LoadPrompts overlays the YAML file at path on top of the defaults.
// An empty path yields the defaults.
func LoadPrompts(path string) (*PromptSet, error) {
	p := DefaultPrompts()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}

	if err := p.compile(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *PromptSet) compile() error {
	tmpl, err := template.New("analysis").Option("missingkey=error").Parse(p.AnalysisTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse analysis template: %w", err)
	}
	p.analysisTmpl = tmpl
	return nil
}

func (p *PromptSet) renderAnalysis(data analysisPromptData) (string, error) {
	var buf bytes.Buffer
	if err := p.analysisTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute analysis template: %w", err)
	}
	return buf.String(), nil
}
