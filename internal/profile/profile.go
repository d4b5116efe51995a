package profile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"folio-backend/internal/models"
)

// Load reads a profile from a YAML file. An empty path yields the built-in
// profile.
func Load(path string) (*models.Profile, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var p models.Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	if p.Name == "" {
		return nil, fmt.Errorf("profile %s has no name", path)
	}

	return &p, nil
}

// Default returns the profile shipped with the site.
func Default() *models.Profile {
	return &models.Profile{
		Name:     "Patrick Arganza",
		Headline: "Full-Stack Software Engineer",
		Bio: "Proficient in modern JavaScript frameworks and libraries including React, Node.js, and Express. " +
			"Experienced in building scalable full-stack applications with clean, maintainable code and best practices.",
		Summary: "Crafting full-stack web applications with the MERN stack. I specialize in building scalable, " +
			"performant, and user-centric solutions that solve real-world problems.",
		TechStack:    defaultTechStack(),
		Experience:   defaultExperience(),
		Projects:     defaultProjects(),
		Achievements: defaultAchievements(),
		SocialLinks: []models.SocialLink{
			{Platform: "GitHub", URL: "#"},
			{Platform: "LinkedIn", URL: "#"},
			{Platform: "Email", URL: "#"},
		},
	}
}

func defaultTechStack() []models.TechCategory {
	return []models.TechCategory{
		{Title: "Frontend Development", Technologies: []string{"HTML5", "CSS3", "JavaScript", "TypeScript", "ReactJS", "NextJS", "NuxtJS", "TailwindCSS"}},
		{Title: "Backend Development", Technologies: []string{"PHP", "Python", "Node.js", "Laravel", "Express.js", "RESTful API", "GraphQL"}},
		{Title: "Mobile & Cross-platform", Technologies: []string{"React Native", "Flutter", "Ionic"}},
		{Title: "Databases", Technologies: []string{"MySQL", "MongoDB", "NoSQL", "Supabase"}},
		{Title: "Developer Tools & DevOps", Technologies: []string{"Git", "GitHub", "GitLab", "VS Code", "Postman", "Figma", "Vite", "Webpack", "Vercel", "CI/CD"}},
		{Title: "AI & Machine Learning", Technologies: []string{"TensorFlow", "OpenCV", "CNN Algorithm", "Neural Networks", "Computer Vision"}},
		{Title: "Core Computer Science", Technologies: []string{"OOP", "MVC", "Data Structures", "Algorithms", "Linux", "Ubuntu", "Agile", "Scrum"}},
		{Title: "No-Code & Visual Development", Technologies: []string{"WordPress", "Webflow", "Elementor", "Beaver Builder", "Colibri", "Wix"}},
	}
}

func defaultExperience() []models.Experience {
	return []models.Experience{
		{
			Title:   "Frontend Developer",
			Company: "Media Meter Inc.",
			Period:  "Mar 2025 - Present",
			Responsibilities: []string{
				"Developed a Law Related Chatbot application",
				"Developed an AI conversational website",
				"Deploy applications using Kubernetes, Docker and AWS technologies",
				"Built applications using existing NuxtJS boilerplates developed by senior engineers",
				"Collaborated across teams to fulfill CEO expectations",
				"Worked in Agile environment",
			},
		},
		{
			Title:   "Front-End Developer Trainee",
			Company: "PRAXXYS Solutions Inc.",
			Period:  "Oct 2024 - Jan 2025",
			Responsibilities: []string{
				"Turned Figma designs into web applications following coding standards using NuxtJS and ShadCN",
				"Deployed code to production through CI/CD pipelines",
				"Collaborated with designers, senior developers, and operations teams to meet client requirements",
				"Built applications using existing NuxtJS boilerplates developed by senior engineers",
				"Integrated APIs into front-end applications for seamless functionality",
				"Developed applications aligned with the User Journey and related documentation",
			},
		},
		{
			Title:   "Software Engineer Intern",
			Company: "Rivan Cyber Training Institute",
			Period:  "Jan 2024 - April 2024",
			Responsibilities: []string{
				"Teach Laravel Jetstream for restaurant management systems",
				"Configured virtual machines and Cisco devices",
				"Automated several commands for certain routing protocols using Python",
				"Handled domains, servers and websites",
				"Configured Cisco Meraki and several topology diagrams",
				"Demonstrated the ability to hack/penetrate a wifi connection using Red Hat Linux",
				"Got exposed in technologies around cybersecurity using Kali Linux",
				"Created websites using WordPress Colibri and Elementor",
				"Exposure to several tools for DevOps like Wireshark, Docker and Kubernetes",
				"Provided assistance to IT professionals and Rivan students in CCNA and CCNP classes",
				"Performed advance cabling of console and Fiber-optic cables",
			},
		},
		{
			Title:   "Mobile Development Lead",
			Company: "Google Developer Student Club",
			Period:  "Jan 2023 - June 2024",
			Responsibilities: []string{
				"Established an IT event about Angular with a software engineer based in Canada",
				"Developed a mobile application using Flutter and Firebase",
				"Created a small application using NoSQL database which is MongoDB",
				"Exposure on technologies around JWT (JSON Web Token) and Vercel",
				"Self-studied React Native and Typescript to prepare for my capstone requirements",
				"Created several programs using MVC architecture and Single-page applications",
				"Got a solid foundation on github and git technologies",
				"Exposure in SDLC, Agile and Waterfall Methodology",
				"Worked with CMS platforms",
			},
		},
		{
			Title:   "Robotics Instructor",
			Company: "University of the East",
			Period:  "Jan 2022 - Mar 2022",
			Responsibilities: []string{
				"Configured a robotic device to maneuver, rotate and accelerate",
				"Instructed the grade 11 students about the properties and programs for the device",
				"Enhances my communication skill for both professionals and students",
				"Performed basic IT troubleshooting",
				"Mild exposure to Arduino",
			},
		},
	}
}

func defaultProjects() []models.Project {
	return []models.Project{
		{
			Title:       "Netflix Clone",
			Description: "A personal project replicating Netflix's core functionalities, developed using Netflix's design system to practice Zustand and TanStack Query.",
			Tags:        []string{"ReactJS", "RESTfulAPI", "Zustand"},
			Link:        "https://netflix-clone-arganza.vercel.app/",
			GitHub:      "https://netflix-clone-arganza.vercel.app/",
		},
		{
			Title:       "Pokemon Game",
			Description: "A basic game in which the user must guess which Pokemon is on their screen. It is also my first NextJs project.",
			Tags:        []string{"Nextjs", "Api", "Git"},
			Link:        "https://pokemon-deploy-dnvh4u6rc-patargz12.vercel.app/",
			GitHub:      "https://pokemon-deploy-dnvh4u6rc-patargz12.vercel.app/",
		},
		{
			Title:       "Pulp Dental Clinic",
			Description: "I developed a landing page for a dental clinic using ReactJS, utilizing five front-end libraries for bettter UI / UX.",
			Tags:        []string{"ReactJS", "Javascript", "Tailwind"},
			Link:        "https://pulp-clinic.vercel.app/",
			GitHub:      "https://pulp-clinic.vercel.app/",
		},
		{
			Title:       "RoadSpeak",
			Description: "My capstone, which has an object detection feature, it introduces me to mobile development and text-to-speech technology.",
			Tags:        []string{"Flutter", "Tensorflow", "Yolov8", "CNN"},
			Link:        "https://roadspeak.vercel.app/",
			GitHub:      "https://roadspeak.vercel.app/",
		},
		{
			Title:       "iXhibit",
			Description: "A small social media platform for artist which has messaging features and advance SCRUD operations which I created for a school activity.",
			Tags:        []string{"C#", "mongodb"},
			GitHub:      "https://github.com/Patargz12/iXhibit",
		},
		{
			Title:       "Crypto Tracker",
			Description: "A web application I built that displays real-time crypto exchange rates using the CoinGecko API and features MetaMask wallet authentication to show Ethereum balances.",
			Tags:        []string{"NuxtJS", "Ethers", "Web3"},
			Link:        "https://crypto-app-arganza.vercel.app/",
			GitHub:      "https://crypto-app-arganza.vercel.app/",
		},
		{
			Title:       "Youtube Clone",
			Description: "A mobile application I created to practice using React Native and prepare for my capstone project.",
			Tags:        []string{"ReactNative", "NodeJS", "Expo"},
			GitHub:      "https://github.com/Patargz12/youtube-clone",
		},
		{
			Title:       "PatCafe",
			Description: "My personal project using Laravel Jetstream. I used this project for my Laravel masterclass, which is presented in my internship.",
			Tags:        []string{"LaravelJetStream", "bootstrap"},
			GitHub:      "https://github.com/Patargz12/PatCafe",
		},
		{
			Title:       "Salina",
			Description: "A Software that turns podcast audio into your very own transcript. Making a content accessible across around 85 languages",
			Tags:        []string{"ReactJS", "Tailwind", "SocketIO"},
			Link:        "https://salina.app/",
		},
		{
			Title:       "Raikou",
			Description: "Built a RAG application for Toyota to query and analyze racing datasets provided by Toyota using AI-powered retrieval",
			Tags:        []string{"NextJS", "MongoDB", "Google Gemini", "Express"},
			Link:        "https://salina.app/",
			GitHub:      "https://github.com/Patargz12/Racing_Repo",
		},
		{
			Title:       "DotaGPT",
			Description: "AI-powered chatbot designed specifically for new Dota 2 players. Using Gemini 1.5 Flash, it provides real-time answers to beginner questions like counters, picks and so much more.",
			Tags:        []string{"NextJS", "MongoDB", "Google Gemini", "Express"},
			Link:        "https://salina.app/",
			GitHub:      "https://github.com/Patargz12/GPT",
		},
		{
			Title:       "Techbook",
			Description: "A Dating site platform but specific only for people in the IT Industry, it has core feature of a dating site the same with like tinder and etc.",
			Tags:        []string{"ReactJS", "Supabase"},
			Link:        "https://classy-croquembouche-f908fd.netlify.app/",
		},
	}
}

// defaultAchievements lists the hero badges first, then the detailed
// overview entries.
func defaultAchievements() []models.Achievement {
	return []models.Achievement{
		{Title: "Level 1 - Hackathon Winner", Subtitle: "Recognized for innovation and execution"},
		{Title: "Rank 30,000 in LeetCode", Subtitle: "Out of 5,000,000+ users"},
		{
			Title:    "LeetCode Rank",
			Subtitle: "Top 30,000 out of 5,000,000+ users",
			Description: "Achieved a competitive ranking in the top 0.6% of LeetCode users through consistent problem-solving. " +
				"Demonstrated strong algorithmic thinking, data structure expertise, and dedication to continuous improvement.",
		},
		{
			Title:    "Hackathon Winner",
			Subtitle: "Level 1 Hackathon Champion",
			Description: "Built an innovative full-stack solution under time constraints. Showcased rapid prototyping skills, " +
				"teamwork, technical execution, and the ability to deliver a polished product in a competitive environment.",
		},
	}
}
