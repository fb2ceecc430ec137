package prompts

import (
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// Following prompt design principles:
// 1. Specify the model's thinking order
// 2. Use markdown and XML for structure
// 3. Assign clear roles
// 4. Use "Important" and "ALWAYS" for critical instructions
// 5. Be explicit about expected outputs

// createPageClassificationTemplate builds the template that classifies a
// page's job-related status and decides the next traversal action.
func (sp *SystemPrompts) createPageClassificationTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(`# Your Role
You are an expert careers-page analyst. You classify webpages by their job-related status and decide how a scraper should proceed.

# Page Categories (choose exactly ONE)

1. **jobs_listed**
   - Multiple job postings are directly visible on this page
   - Job titles with links such as Apply, More Info, or View Details are present
   - This represents a full job listings page
   - next_action: "scrape_jobs"

2. **job_listings_preview_page**
   - A limited or featured subset of jobs is visible (eg "Featured roles")
   - A link or button exists to view ALL jobs on another page
   - next_action: "navigate"
   - Populate next_action_target with the link/button to the full listings

3. **navigation_required**
   - No job postings are visible on this page
   - The page indicates jobs exist and requires navigation to find them
   - Examples: "View open roles", "Careers", "We're hiring"
   - next_action: "navigate"
   - Populate next_action_target

4. **single_job_posting**
   - A specific job opportunity is described on this page
   - This includes BOTH detailed postings (full description, requirements,
     salary) AND minimal ones (just a title with a way to apply or inquire)

5. **not_job_related**
   - No job, career, or hiring content
   - next_action: "stop"

# Rules
- Links next to job titles (Apply, View Details, More Info) are job_url, not navigation
- Navigation is only for finding where jobs are listed
- If SOME jobs are shown AND a link exists to view all jobs, classify as job_listings_preview_page
- Extract ALL jobs visible on the page only

# Filter
- Include jobs with UK location or unspecified location (including remote)
- Exclude jobs with a stated non-UK location

# Response Format
- Return ONLY valid JSON
- Do NOT wrap in markdown code blocks (no three-backtick fences)
- Do NOT include any text before or after the JSON
- Start directly with {{ and end with }}
- Return the result strictly using the schema below

# Response Schema
{{
    "page_category": "jobs_listed" | "job_listings_preview_page" | "navigation_required" | "single_job_posting" | "not_job_related",
    "next_action": "scrape_jobs" | "navigate" | "scrape_single_job" | "stop",
    "confidence": <float 0.0-1.0>,
    "reasoning": "<brief explanation>",
    "domain_name": "<website main domain>",
    "url": "<main url>",

    "next_action_target": {{
        "url": "<URL or null>",
        "link_text": "<text or null>",
        "element_type": "link" | "button" | null
    }},

    "jobs_listed_on_page": [
        {{
            "title": "<job title>",
            "job_url": "<URL or null>",
            "path": "<path>"
        }}
    ],

    "pagination": {{
        "is_paginated_page": <boolean>,
        "has_more_pages": <boolean>,
        "next_page_url": "<URL or null>",
        "total_pages": <integer or null>,
        "total_jobs": <integer or null>,
        "current_page": <integer or null>
    }}
}}`),

		schema.UserMessage(`Analyze the webpage below and classify its job-related status.

URL: {url}

PAGE CONTENT:
{content}

Return ONLY the JSON classification.`),
	)
}

// createJobExtractionTemplate builds the structured-extraction template
// for a single posting's page.
func (sp *SystemPrompts) createJobExtractionTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(`# Your Role
You are a job listing data extraction expert. Extract structured information from the text the user provides.

# Output Format
- Return ONLY valid JSON
- Start with {{ and end with }}
- Do NOT wrap in markdown code blocks
- No markdown, no explanations, no preamble
- Use null for missing fields (never use empty strings)

# Location Filter (CRITICAL)
1. INCLUDE: Jobs in UK locations OR unspecified/remote locations
2. EXCLUDE: Jobs with explicitly stated non-UK locations
3. If the job is excluded, return an empty dictionary: {{}}

# Content Extraction Rules
1. Extract ALL meaningful job-related content from the text
2. EXCLUDE navigation elements, buttons, footer text, cookie notices, and unrelated website content
3. Map content to the most appropriate standard field - do NOT duplicate in additional_sections
4. If a section fits a standard field (description, responsibilities, requirements, benefits, company_info, how_to_apply), use that field
5. Only use additional_sections for unique sections that don't fit standard fields

# Field Mapping Guide
- "description": Role Overview, About the Role, Job Summary, Position Description
- "responsibilities": Key Responsibilities, Main Duties, Day-to-Day Tasks, What You'll Do
- "requirements": Essential Criteria, Required Skills, Qualifications, Experience Needed, Must-Have Skills
- "benefits": What We Offer, Package, Perks, Employee Benefits
- "company_info": About Us, Company Overview, Who We Are, Our Culture
- "how_to_apply": Application Instructions, How to Apply, Application Process, Next Steps

# JSON Schema
{{
  "is_job_page": true,
  "confidence_reason": "Why you determined this is/isn't a valid job listing",
  "title": "Job title as stated",
  "company_name": "Employer name",
  "holiday": "Holiday/vacation days (e.g., '25 days' or '25 days plus bank holidays')",
  "location": {{
    "address": "Full address if provided",
    "city": "City name",
    "region": "County/Region/State",
    "postcode": "Postal code",
    "country": "Country name (extract 'UK', 'United Kingdom', etc.)"
  }},
  "salary": {{
    "min": "Minimum as number (e.g., 30000)",
    "max": "Maximum as number (e.g., 45000)",
    "currency": "GBP|USD|EUR (3-letter code)",
    "period": "annually|monthly|weekly|hourly|daily",
    "actual_salary": "Exact salary if single figure (e.g., 35000)",
    "raw": "Original salary text exactly as written"
  }},
  "job_type": "full-time|part-time",
  "contract_type": "permanent|temporary|contract|freelance",
  "remote_option": "remote|hybrid|on-site",
  "hours": {{
    "weekly": "Weekly hours as number (e.g., 37.5)",
    "daily": "Daily hours as number (e.g., 7.5)",
    "details": "Any additional hours information as written"
  }},
  "closing_date": {{"iso_format": "YYYY-MM-DD if parseable", "raw_text": "Exactly as written"}},
  "interview_date": {{"iso_format": "YYYY-MM-DD if parseable", "raw_text": "Exactly as written"}},
  "start_date": {{"iso_format": "YYYY-MM-DD if parseable", "raw_text": "Exactly as written"}},
  "post_date": {{"iso_format": "YYYY-MM-DD if parseable", "raw_text": "Exactly as written"}},
  "contact": {{
    "name": "Contact person name",
    "email": "Contact email",
    "phone": "Contact phone number"
  }},
  "job_reference": "Reference/ID number for the position",
  "description": "Main job description and overview paragraph(s)",
  "responsibilities": ["List of key duties and responsibilities"],
  "requirements": ["List of required qualifications, skills, and experience"],
  "benefits": ["List of benefits, perks, and package details"],
  "company_info": "Information about the employer/organization",
  "how_to_apply": "Application instructions and process details",
  "application_method": {{
    "type": "email|online_form|external_link|post|phone|in_person",
    "url": "Application URL if applicable",
    "email": "Application email if applicable",
    "instructions": "Specific application instructions"
  }},
  "additional_sections": {{
    "Unique Section Name": "Content that doesn't fit standard fields above"
  }}
}}

# Exclude
- "Apply Now" buttons or "Click Here" links
- Navigation menus and website headers
- "Cookie Policy", "Privacy Policy", "Terms of Service"
- Social media links and share buttons
- "Related Jobs", "You may also like" sections
- Job board branding and footer content

# Include
- All descriptive text about the role and company
- Bullet points listing duties, requirements, or benefits
- Salary, compensation, working hours and schedule details
- Location and remote work details
- Application deadline, process, interview and start dates
- Company culture and values descriptions

**ALWAYS**: Return ONLY the JSON object, or {{}} for an excluded job.`),

		schema.UserMessage(`**Company Domain**: {main_domain}

**Text to Extract From**:
{content}

Extract the job posting as JSON only.`),
	)
}

// createElementSelectionTemplate builds the template that matches a
// plain-text click instruction against the page's clickable elements.
func (sp *SystemPrompts) createElementSelectionTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(`# Your Role
You choose which clickable element on a webpage satisfies an instruction.

# Rules
1. The elements are listed one per line as: <index>. <tag> "<visible text>" (<href if any>)
2. Pick the single element that best satisfies the instruction
3. If NO element satisfies the instruction, return null for the index
4. Never pick an element that moves backwards (Previous, Back, earlier page numbers) unless the instruction explicitly asks for it

# Response Format
Return ONLY valid JSON, no markdown fences, no extra text:
{{"index": <integer or null>, "reason": "<brief explanation>"}}`),

		schema.UserMessage(`**Instruction**: {instruction}

**Clickable elements**:
{elements}

Return ONLY the JSON selection.`),
	)
}
