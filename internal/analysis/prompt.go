package analysis

import "fmt"

const systemPrompt = "You are a legal contract analyst specializing in Indian SME contracts. You answer with raw JSON only."

const promptTemplate = `Analyze this %s contract text and provide a structured JSON output.
Focus on identifying risks, obligations, and key terms.

Output format (STRICTLY JSON, no markdown code blocks, just the raw JSON):
{
    "contract_type": "Type of contract (Employment/Vendor/Lease/etc)",
    "summary": "Plain language summary of what this contract is about (2-3 sentences)",
    "parties": ["Party A", "Party B"],
    "contract_date": "Date if found",
    "jurisdiction": "City/State/Country laws applicable",
    "clauses": [
        {
            "id": "1",
            "title": "Title of clause",
            "text": "Full text or summary of clause",
            "type": "Category (e.g., Termination, Payment, Indemnity, Non-Compete)",
            "risk_level": "Low/Medium/High",
            "explanation": "Simple explanation of what this means for the user",
            "recommendation": "Negotiation tip or alternative wording if risky"
        }
    ],
    "overall_risk_factors": ["List of key risky terms found globally"]
}

Contract Text:
%s
`

func buildPrompt(text, typeHint string) string {
	return fmt.Sprintf(promptTemplate, typeHint, text)
}
