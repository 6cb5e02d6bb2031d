package taxonomy

const (
	// ResumeName labels the table resumes are matched against.
	ResumeName = "resume"
	// JobName labels the table job descriptions are matched against.
	JobName = "job"
)

// The two built-in tables differ on purpose: job descriptions use
// ATS-oriented wording, resumes carry a broader tool list and a General domain.

// Resume returns the built-in resume taxonomy.
func Resume() *Taxonomy {
	return New(ResumeName,
		Domain{Name: "Frontend", Keywords: []string{
			"html", "css", "javascript", "react", "angular", "vue",
			"bootstrap", "typescript", "responsive design", "ui/ux", "figma",
		}},
		Domain{Name: "Backend", Keywords: []string{
			"python", "java", "nodejs", "express", "django", "flask",
			"spring", "php", "c#", ".net", "api", "rest", "graphql",
			"microservices",
		}},
		Domain{Name: "Data", Keywords: []string{
			"sql", "mysql", "postgresql", "mongodb", "pandas", "numpy",
			"machine learning", "data analysis", "spark", "etl",
			"data warehouse", "power bi", "tableau",
		}},
		Domain{Name: "Cloud", Keywords: []string{
			"aws", "azure", "gcp", "docker", "kubernetes",
			"terraform", "ci/cd", "jenkins", "lambda", "s3",
		}},
		Domain{Name: "Security", Keywords: []string{
			"cybersecurity", "penetration testing", "vulnerability assessment",
			"siem", "ids", "ips", "incident response", "firewall", "encryption",
		}},
		Domain{Name: "General", Keywords: []string{
			"git", "linux", "agile", "scrum", "problem solving",
			"communication", "teamwork",
		}},
	)
}

// Job returns the built-in job description taxonomy.
func Job() *Taxonomy {
	return New(JobName,
		Domain{Name: "Frontend", Keywords: []string{
			"html", "css", "javascript", "react", "angular", "vue",
			"typescript", "ui", "ux",
		}},
		Domain{Name: "Backend", Keywords: []string{
			"python", "java", "node", "express", "django", "flask",
			"spring", "api", "microservices",
		}},
		Domain{Name: "Data", Keywords: []string{
			"sql", "nosql", "data analysis", "data engineering",
			"pandas", "numpy", "spark", "airflow", "etl",
			"data warehouse", "big data",
		}},
		Domain{Name: "Cloud", Keywords: []string{
			"aws", "azure", "gcp", "docker", "kubernetes",
			"terraform", "ci/cd",
		}},
		Domain{Name: "Security", Keywords: []string{
			"cybersecurity", "security", "penetration testing",
			"siem", "soc", "nmap", "burp", "owasp",
			"incident response", "threat detection", "malware",
		}},
	)
}
