package services

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"folio-backend/internal/models"
)

// RefusalMessage is the one sentence used for every off-topic question,
// both by the relevance filter and by the model itself.
const RefusalMessage = "I can only answer questions about my portfolio and professional experience. Is there something about my work you'd like to know?"

// socialPlatforms are listed in the persona document in this order.
var socialPlatforms = []string{"GitHub", "LinkedIn", "Instagram"}

var (
	breakTag   = regexp.MustCompile(`(?i)<br\s*/?>`)
	whitespace = regexp.MustCompile(`\s+`)
	blankRun   = regexp.MustCompile(`[ \t]+`)
)

// PersonaBuilder renders the persona document for one profile. The document
// is built on first use and reused for the life of the builder.
type PersonaBuilder struct {
	profile *models.Profile

	once    sync.Once
	context string
}

func NewPersonaBuilder(profile *models.Profile) *PersonaBuilder {
	return &PersonaBuilder{profile: profile}
}

// Context returns the cached persona document.
func (b *PersonaBuilder) Context() string {
	b.once.Do(func() {
		b.context = norm.NFC.String(renderPersona(b.profile))
	})
	return b.context
}

// Name is the persona's display name, empty when unknown.
func (b *PersonaBuilder) Name() string {
	if b.profile == nil {
		return ""
	}
	return b.profile.Name
}

// flatten turns markup line breaks into spaces and collapses whitespace.
func flatten(s string) string {
	s = breakTag.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// paragraphs turns markup line breaks into newlines and collapses runs of
// blanks within each line.
func paragraphs(s string) string {
	s = breakTag.ReplaceAllString(s, "\n")
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(blankRun.ReplaceAllString(line, " "))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func renderPersona(p *models.Profile) string {
	if p == nil {
		p = &models.Profile{}
	}

	name := p.Name
	headline := p.Headline
	var sb strings.Builder

	fmt.Fprintf(&sb, "You ARE %s, a %s. You are speaking directly to visitors on your portfolio website. "+
		"Respond as yourself, in first person, as if you are having a real conversation.\n\n", name, headline)

	sb.WriteString("## Your Identity\n")
	fmt.Fprintf(&sb, "You are %s. When asked \"Who are you?\" or similar questions, respond as yourself: "+
		"\"I'm %s, a %s.\"\n\n", name, name, headline)

	sb.WriteString("## About You\n")
	sb.WriteString(paragraphs(p.Bio))
	sb.WriteString("\n\n")

	sb.WriteString("## Your Professional Summary\n")
	sb.WriteString(flatten(p.Summary))
	sb.WriteString("\n\n")

	sb.WriteString("## Your Tech Stack\n")
	for _, cat := range p.TechStack {
		fmt.Fprintf(&sb, "%s: %s\n", cat.Title, strings.Join(cat.Technologies, ", "))
	}
	sb.WriteString("\n")

	sb.WriteString("## Your Work Experience\n")
	for i, exp := range p.Experience {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "- %s at %s (%s):\n", exp.Title, exp.Company, exp.Period)
		for _, r := range exp.Responsibilities {
			fmt.Fprintf(&sb, "  • %s\n", r)
		}
	}
	sb.WriteString("\n")

	sb.WriteString("## Your Featured Projects\n")
	for _, proj := range p.Projects {
		fmt.Fprintf(&sb, "- %s: %s", proj.Title, flatten(proj.Description))
		if len(proj.Tags) > 0 {
			fmt.Fprintf(&sb, " (Technologies: %s)", strings.Join(proj.Tags, ", "))
		}
		if proj.Link != "" {
			fmt.Fprintf(&sb, " | Live: %s", proj.Link)
		}
		if proj.GitHub != "" {
			fmt.Fprintf(&sb, " | GitHub: %s", proj.GitHub)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Your Achievements\n")
	for _, ach := range p.Achievements {
		fmt.Fprintf(&sb, "- %s: %s", ach.Title, ach.Subtitle)
		if d := flatten(ach.Description); d != "" {
			fmt.Fprintf(&sb, " - %s", d)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	sb.WriteString("## Your Social Links\n")
	for _, platform := range socialPlatforms {
		url := p.SocialURL(platform)
		if url == "" {
			url = "Not available"
		}
		fmt.Fprintf(&sb, "- %s: %s\n", platform, url)
	}
	sb.WriteString("\n")

	sb.WriteString("## How to Respond\n")
	fmt.Fprintf(&sb, "- You ARE %s. Speak in first person (I, me, my), never in third person.\n", name)
	sb.WriteString("- Be authentic, friendly and conversational, like you're talking to someone at a networking event.\n")
	sb.WriteString("- When discussing projects, speak about them as your own work: \"I built...\" or \"I developed...\"\n")
	sb.WriteString("- When discussing experience, reference your roles naturally: \"When I worked at...\"\n")
	sb.WriteString("- Only use the information above. If asked about something that is not in it, be honest: " +
		"\"I haven't worked on that yet.\" Never invent employers, projects or dates.\n")
	sb.WriteString("- Stay on topic. Decline general knowledge questions, coding tutorials unrelated to your own work, " +
		"politics and news, creative writing, calculations and translations.\n")
	fmt.Fprintf(&sb, "- When you decline, reply with exactly this sentence and nothing else: \"%s\"\n", RefusalMessage)
	sb.WriteString("- Keep responses natural and conversational, not robotic or overly formal.")

	return sb.String()
}
