package services

import (
	"regexp"
	"strings"

	"folio-backend/internal/models"
)

// RelevanceFilter rejects obviously off-topic questions before any call to
// the model. It is a heuristic: whatever it lets through is still bounded by
// the persona instructions.
type RelevanceFilter struct {
	greetings []*regexp.Regexp
	// always off-topic
	offTopic []*regexp.Regexp
	// off-topic unless the question is about the persona
	impersonal []*regexp.Regexp
	personal   *regexp.Regexp
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile("(?i)"+p))
	}
	return out
}

var corporateSuffix = regexp.MustCompile(`(?i)[\s,]+(inc|corp|corporation|llc|ltd|co)\.?$`)

// personalTerms lists the names that make a question about the owner: the
// first and full name, project titles and employers.
func personalTerms(p *models.Profile) []string {
	if p == nil {
		return nil
	}
	var terms []string
	add := func(term string) {
		term = strings.TrimRight(strings.TrimSpace(term), " .,&")
		if term != "" {
			terms = append(terms, regexp.QuoteMeta(term))
		}
	}

	if first := strings.Fields(p.Name); len(first) > 0 {
		add(first[0])
		add(p.Name)
	}
	for _, proj := range p.Projects {
		add(proj.Title)
	}
	for _, exp := range p.Experience {
		add(exp.Company)
		add(corporateSuffix.ReplaceAllString(exp.Company, ""))
	}
	return terms
}

// NewRelevanceFilter builds the filter for one profile. Questions naming the
// owner, one of their projects or one of their employers count as personal
// alongside "you" and "your". Technology names do not: "What is React?" is
// general knowledge even when React is on the owner's stack.
func NewRelevanceFilter(p *models.Profile) *RelevanceFilter {
	personal := `\b(you|your|yours|yourself|you're|you've)\b`
	if terms := personalTerms(p); len(terms) > 0 {
		personal += `|(^|[^\pL\pN_])(` + strings.Join(terms, "|") + `)($|[^\pL\pN_])`
	}

	// an imperative, optionally softened by "please" or "can you"
	request := `^\s*(please\s+)?((can|could|would|will)\s+you\s+)?(please\s+)?`

	return &RelevanceFilter{
		greetings: compileAll(
			`^\s*(hi|hello|hey|hiya|howdy|yo|greetings|sup|what'?s up|good (morning|afternoon|evening|day)|thanks|thank you)(\s+there)?[\s!.,?]*$`,
		),
		offTopic: compileAll(
			// creative writing
			request + `(write|compose|create|make)\s+(me\s+)?(a|an|some)\s+(poem|story|song|lyrics|essay|joke|haiku|limerick|novel|rap)\b`,
			`\btell\s+me\s+a\s+(joke|story|riddle)\b`,
			// translations
			`\btranslate\b`,
			`\bhow\s+do\s+(you|i)\s+say\b.*\bin\s+(spanish|french|german|japanese|chinese|korean|tagalog|filipino|italian|portuguese|russian)\b`,
			// calculations
			`\b(calculate|compute|solve)\b`,
			`^\s*(what\s+is\s+|what's\s+)?-?\d+(\.\d+)?\s*[-+*/x×÷^%]\s*-?\d+`,
			// politics and news
			`\b(politics|political|elections?|democrats?|republicans?)\b`,
			`\b(latest|today'?s|current|breaking)\s+news\b`,
			// coding requests
			request + `(write|generate|give me)\s+(me\s+)?(a|an|some)?\s*(function|code|script|program|query|regex|class|component|snippet)\b`,
		),
		impersonal: compileAll(
			// general knowledge
			`^\s*(what|who|where|when)\s+(is|are|was|were)\s+`,
			`\b(capital of|population of|weather|recipe|meaning of life|how tall is|how old is|how far is)\b`,
			`\b(president|prime minister|senator|congress|parliament)\b`,
			// tutorials
			`\bhow\s+(do|can|to|should)\s+(i|we)?\s*(write|code|implement|build|create|make|use|install|setup|set up|fix|debug|learn)\b`,
			`\b(explain|teach me|tutorial|difference between|example of)\b`,
		),
		personal: regexp.MustCompile("(?i)" + personal),
	}
}

// Validate returns the refusal message and true when text is off-topic.
func (f *RelevanceFilter) Validate(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	for _, re := range f.greetings {
		if re.MatchString(text) {
			return "", false
		}
	}

	for _, re := range f.offTopic {
		if re.MatchString(text) {
			return RefusalMessage, true
		}
	}

	if f.personal.MatchString(text) {
		return "", false
	}
	for _, re := range f.impersonal {
		if re.MatchString(text) {
			return RefusalMessage, true
		}
	}

	return "", false
}
