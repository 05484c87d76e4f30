package openai

const tagResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "tags": {
      "type": "array",
      "items": {
        "type": "string",
        "pattern": "^[a-z0-9_]+$"
      }
    }
  },
  "required": ["tags"],
  "additionalProperties": false
}`

const tagSystemPrompt = `Generate topical tags for the given document text and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

` + tagResponseSchema + `

Rules:
- Tags must be lowercase snake_case, 1-3 words joined by underscores.
- Generate between 3 and 8 tags covering the main topics of the text.
- Prefer specific tags over generic ones ("kubernetes_networking" over "technology").
- Include only topics that are explicitly mentioned or clearly implied by the text. Do not hallucinate.
- If the text is too short or empty to tag, return "tags": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "To configure TLS for the ingress controller, create a secret holding the certificate and reference it from the Ingress resource."
Output:
{
  "tags": ["tls", "ingress_controller", "kubernetes", "certificates"]
}

Example (short text):
Input: "See above."
Output:
{
  "tags": []
}`
