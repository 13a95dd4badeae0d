package domains

// Default returns the built-in role catalog.
func Default() *Catalog {
	c, err := New(DefaultSpecs())
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultSpecs returns a fresh copy of the built-in role definitions.
func DefaultSpecs() []Spec {
	return []Spec{
		{
			Label:        "frontend developer",
			BioKeywords:  []string{"frontend", "react", "angular", "vue", "svelte", "iit", "nit", "front-end"},
			RepoKeywords: []string{"react", "angular", "vue", "svelte", "nextjs", "nuxt"},
			Languages:    []string{"JavaScript", "TypeScript", "HTML", "CSS"},
		},
		{
			Label:        "backend developer",
			BioKeywords:  []string{"backend", "node", "django", "spring", "express", "flask", "iit", "nit", "back-end"},
			RepoKeywords: []string{"node", "django", "spring", "express", "flask", "fastapi", "laravel"},
			Languages:    []string{"Python", "Java", "Go", "PHP", "Ruby", "C#", "Node.js"},
		},
		{
			Label:        "software engineer",
			BioKeywords:  []string{"software engineer", "developer", "programmer", "engineer", "iit", "nit", "sde"},
			RepoKeywords: []string{"algorithm", "data-structure", "competitive-programming"},
			Languages:    []string{"Python", "Java", "C++", "JavaScript", "Go"},
		},
		{
			Label:        "full stack developer",
			BioKeywords:  []string{"full stack", "mern", "mean", "lamp", "developer", "iit", "nit", "fullstack"},
			RepoKeywords: []string{"mern", "mean", "lamp", "full-stack", "portfolio"},
			Languages:    []string{"JavaScript", "TypeScript", "Java", "Python", "PHP"},
		},
		{
			Label:        "ui/ux designer",
			BioKeywords:  []string{"ui", "ux", "user interface", "user experience", "designer", "iit", "nit", "product designer"},
			RepoKeywords: []string{"ui", "ux", "design", "figma", "prototype"},
			Languages:    []string{"JavaScript", "CSS", "HTML", "Dart"},
		},
		{
			Label:        "artificial intelligence",
			BioKeywords:  []string{"ai", "artificial intelligence", "ml", "machine learning", "deep learning", "iit", "nit", "nlp"},
			RepoKeywords: []string{"tensorflow", "pytorch", "scikit-learn", "machine-learning", "neural-network"},
			Languages:    []string{"Python", "R", "Julia", "MATLAB"},
		},
		{
			Label:        "devops engineer",
			BioKeywords:  []string{"devops", "infrastructure", "automation", "kubernetes", "docker", "ci/cd", "iit", "nit", "sre"},
			RepoKeywords: []string{"devops", "infrastructure", "kubernetes", "docker", "terraform", "ansible"},
			Languages:    []string{"Shell", "Python", "Go", "YAML"},
		},
		{
			Label:        "machine learning",
			BioKeywords:  []string{"machine learning", "ml", "deep learning", "ai", "data science", "iit", "nit", "computer vision"},
			RepoKeywords: []string{"machine-learning", "tensorflow", "pytorch", "scikit-learn", "keras"},
			Languages:    []string{"Python", "R", "Julia", "C++"},
		},
		{
			Label:        "data scientist",
			BioKeywords:  []string{"data scientist", "data science", "analytics", "data analyst", "iit", "nit", "statistician"},
			RepoKeywords: []string{"data-science", "pandas", "numpy", "scikit-learn", "jupyter"},
			Languages:    []string{"Python", "R", "SQL", "Scala"},
		},
		{
			Label:        "cloud engineer",
			BioKeywords:  []string{"cloud", "aws", "azure", "gcp", "devops", "iit", "nit", "cloud architect"},
			RepoKeywords: []string{"aws", "azure", "gcp", "cloud", "serverless"},
			Languages:    []string{"Python", "Go", "Java", "JavaScript"},
		},
		{
			Label:        "mobile developer",
			BioKeywords:  []string{"mobile", "android", "ios", "flutter", "react native", "iit", "nit", "app developer"},
			RepoKeywords: []string{"android", "ios", "flutter", "react-native", "mobile-app"},
			Languages:    []string{"Java", "Kotlin", "Swift", "Dart", "JavaScript"},
		},
		{
			Label:        "cybersecurity",
			BioKeywords:  []string{"cybersecurity", "security", "ethical hacking", "penetration testing", "iit", "nit", "infosec"},
			RepoKeywords: []string{"security", "penetration-testing", "vulnerability", "encryption"},
			Languages:    []string{"Python", "C", "JavaScript", "Go"},
		},
	}
}
