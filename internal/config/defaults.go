package config

// GetDefaultResearchTemplate returns the default template for topic research
func GetDefaultResearchTemplate() string {
	return `You are a content researcher for a marketing publication. Research the topic: "{{.Topic}}".

Target keywords: {{.Keywords}}

Gather:
- A concise summary of the current state of the topic (3-5 sentences)
- 5-8 key points an article must cover
- Notable statistics with their sources
- Reputable sources worth citing

Return ONLY a valid JSON object (no markdown, no additional text):
{
  "summary": "<summary>",
  "key_points": ["<point>", ...],
  "statistics": ["<statistic with source>", ...],
  "sources": ["<url or publication>", ...]
}`
}

// GetDefaultContentTemplate returns the default template for article authoring
func GetDefaultContentTemplate() string {
	return `You are an expert content writer. Write a complete article on: "{{.Topic}}".

Target keywords: {{.Keywords}}
Tone: {{.Tone}}
Target length: {{.WordCount}} words
{{if .Research}}
Use this research:
{{.Research}}
{{end}}
Requirements:
- An engaging, specific title (under 70 characters)
- Well-structured body in markdown with H2/H3 headings
- A meta description under 160 characters
- A short excerpt (1-2 sentences)

Return ONLY a valid JSON object (no markdown fences, no additional text):
{
  "title": "<title>",
  "body": "<full markdown body>",
  "excerpt": "<excerpt>",
  "meta_description": "<meta description>"
}`
}

// GetDefaultImageBriefTemplate returns the default template for image briefs
func GetDefaultImageBriefTemplate() string {
	return `Create {{.Count}} image briefs for an article titled "{{.Title}}" about "{{.Topic}}".

The first image is the featured image. Each brief needs a detailed visual
description suitable for an image generator, alt text, and a caption.

Return ONLY a valid JSON array (no markdown, no additional text):
[{"description": "<visual description>", "alt_text": "<alt text>", "caption": "<caption>"}, ...]`
}

// GetDefaultQualityRubricTemplate returns the default rubric for the quality gate.
// Criteria follow the E-E-A-T model plus readability and keyword coverage.
func GetDefaultQualityRubricTemplate() string {
	return `You are a senior content editor reviewing an article before publication.

ARTICLE TITLE: {{.Title}}
TARGET KEYWORDS: {{.Keywords}}

ARTICLE BODY:
{{.Body}}

Score each criterion from 1 to 5, where 1 = unpublishable and 5 = exceptional,
with a short reasoning for each:
1. experience - does the writing demonstrate first-hand experience with the subject?
2. expertise - is the subject matter handled with depth and accuracy?
3. authoritativeness - are claims supported and sources credible?
4. trustworthiness - is the article free of misleading or unverifiable statements?
5. readability - structure, flow, and clarity for the target audience
6. keyword_coverage - are the target keywords covered naturally?

Return ONLY a valid JSON object with this exact structure (no markdown, no additional text):
{
  "experience": {"score": <1-5>, "reasoning": "<analysis>"},
  "expertise": {"score": <1-5>, "reasoning": "<analysis>"},
  "authoritativeness": {"score": <1-5>, "reasoning": "<analysis>"},
  "trustworthiness": {"score": <1-5>, "reasoning": "<analysis>"},
  "readability": {"score": <1-5>, "reasoning": "<analysis>"},
  "keyword_coverage": {"score": <1-5>, "reasoning": "<analysis>"}
}`
}
