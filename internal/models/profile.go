package models

// Profile is the structured portfolio data the persona document is built from.
type Profile struct {
	Name         string         `yaml:"name" json:"name"`
	Headline     string         `yaml:"headline" json:"headline"`
	Bio          string         `yaml:"bio" json:"bio"`
	Summary      string         `yaml:"summary" json:"summary"`
	TechStack    []TechCategory `yaml:"tech_stack" json:"tech_stack"`
	Experience   []Experience   `yaml:"experience" json:"experience"`
	Projects     []Project      `yaml:"projects" json:"projects"`
	Achievements []Achievement  `yaml:"achievements" json:"achievements"`
	SocialLinks  []SocialLink   `yaml:"social_links" json:"social_links"`
}

type TechCategory struct {
	Title        string   `yaml:"title" json:"title"`
	Technologies []string `yaml:"technologies" json:"technologies"`
}

type Experience struct {
	Title            string   `yaml:"title" json:"title"`
	Company          string   `yaml:"company" json:"company"`
	Period           string   `yaml:"period" json:"period"`
	Responsibilities []string `yaml:"responsibilities" json:"responsibilities"`
}

type Project struct {
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	Tags        []string `yaml:"tags" json:"tags"`
	Link        string   `yaml:"link" json:"link,omitempty"`
	GitHub      string   `yaml:"github" json:"github,omitempty"`
}

type Achievement struct {
	Title       string `yaml:"title" json:"title"`
	Subtitle    string `yaml:"subtitle" json:"subtitle"`
	Description string `yaml:"description" json:"description,omitempty"`
}

type SocialLink struct {
	Platform string `yaml:"platform" json:"platform"`
	URL      string `yaml:"url" json:"url"`
}

// SocialURL returns the URL registered for platform, or "" when absent.
func (p *Profile) SocialURL(platform string) string {
	for _, s := range p.SocialLinks {
		if s.Platform == platform {
			return s.URL
		}
	}
	return ""
}
