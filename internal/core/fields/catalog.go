package fields

import "github.com/kirillkom/resume-form-filler/internal/core/domain"

func builtinCatalog() []domain.FieldDefinition {
	return []domain.FieldDefinition{
		{
			Key: "first_name", Label: "First Name", Type: domain.FieldPersonalInfo, Required: true,
			Queries:  []string{"What is the person's first name or given name? Look for names at the beginning of the resume."},
			Aliases:  []string{"firstname", "given name", "first", "forename", "christian name"},
			Examples: []string{"John", "Sarah"},
		},
		{
			Key: "last_name", Label: "Last Name", Type: domain.FieldPersonalInfo, Required: true,
			Queries:  []string{"What is the person's last name, surname, or family name? Look for names at the beginning of the resume."},
			Aliases:  []string{"lastname", "surname", "family name", "last", "family"},
			Examples: []string{"Smith", "Johnson"},
		},
		{
			Key: "full_name", Label: "Full Name", Type: domain.FieldPersonalInfo, Required: true,
			Queries:  []string{"What is the person's full name? Look for the complete name at the top of the resume."},
			Aliases:  []string{"name", "candidate name", "applicant name", "your name", "complete name"},
			Examples: []string{"John Smith"},
		},
		{
			Key: "email", Label: "Email", Type: domain.FieldContact, Required: true,
			Queries:   []string{"What is the person's email address? Look for email format like name@domain.com in the contact information."},
			Aliases:   []string{"email address", "e-mail", "electronic mail", "contact email", "work email", "personal email"},
			Examples:  []string{"john.smith@email.com"},
			Validator: validators["email"],
		},
		{
			Key: "phone", Label: "Phone", Type: domain.FieldContact, Required: true,
			Queries:   []string{"What is the person's phone number or telephone number? Look for numbers in formats like (555) 123-4567 or +1-555-123-4567."},
			Aliases:   []string{"phone number", "telephone", "mobile", "cell", "contact number", "primary phone", "mobile number"},
			Examples:  []string{"(555) 123-4567"},
			Validator: validators["phone"],
		},
		{
			Key: "address", Label: "Address", Type: domain.FieldContact,
			Queries:  []string{"home address or location"},
			Aliases:  []string{"home address", "street address", "residence", "current address", "mailing address"},
			Examples: []string{"123 Main St, City, State 12345"},
		},
		{
			Key: "city", Label: "City", Type: domain.FieldContact,
			Queries:  []string{"city or location"},
			Aliases:  []string{"location", "current city", "residence city"},
			Examples: []string{"New York", "Chicago"},
		},
		{
			Key: "state", Label: "State", Type: domain.FieldContact,
			Queries:  []string{"state or province"},
			Aliases:  []string{"province", "region"},
			Examples: []string{"CA", "New York"},
		},
		{
			Key: "zip_code", Label: "Zip Code", Type: domain.FieldContact,
			Queries:   []string{"zip code or postal code"},
			Aliases:   []string{"zip", "postal code", "postcode", "zipcode"},
			Examples:  []string{"90210"},
			Validator: validators["zip"],
		},
		{
			Key: "university", Label: "University", Type: domain.FieldEducation,
			Queries:  []string{"university or college name"},
			Aliases:  []string{"college", "school", "institution", "alma mater", "educational institution"},
			Examples: []string{"Stanford University"},
		},
		{
			Key: "degree", Label: "Degree", Type: domain.FieldEducation,
			Queries:  []string{"degree or qualification"},
			Aliases:  []string{"education level", "diploma", "major", "field of study", "bachelor", "master", "phd"},
			Examples: []string{"Bachelor of Science"},
		},
		{
			Key: "graduation_year", Label: "Graduation Year", Type: domain.FieldEducation,
			Queries:   []string{"year of graduation from university or college"},
			Aliases:   []string{"year graduated", "completion year", "graduation date", "year of graduation"},
			Examples:  []string{"2020"},
			Validator: validators["year"],
		},
		{
			Key: "gpa", Label: "GPA", Type: domain.FieldEducation,
			Queries:   []string{"GPA or grade point average"},
			Aliases:   []string{"grade point average", "grades", "cgpa"},
			Examples:  []string{"3.8"},
			Validator: validators["gpa"],
		},
		{
			Key: "current_job_title", Label: "Current Job Title", Type: domain.FieldExperience,
			Queries:  []string{"current job title or position"},
			Aliases:  []string{"current position", "job title", "current job", "position", "current role", "title", "occupation"},
			Examples: []string{"Software Engineer"},
		},
		{
			Key: "current_company", Label: "Current Company", Type: domain.FieldExperience,
			Queries:  []string{"current company or employer"},
			Aliases:  []string{"employer", "current employer", "company", "organization", "workplace"},
			Examples: []string{"Google"},
		},
		{
			Key: "years_of_experience", Label: "Years of Experience", Type: domain.FieldExperience,
			Queries:  []string{"total years of work experience"},
			Aliases:  []string{"work experience", "experience", "years worked", "professional experience"},
			Examples: []string{"5 years"},
		},
		{
			Key: "previous_company", Label: "Previous Company", Type: domain.FieldExperience,
			Queries:  []string{"previous company or employer"},
			Aliases:  []string{"former employer", "last company", "previous employer", "prior company"},
			Examples: []string{"IBM"},
		},
		{
			Key: "skills", Label: "Skills", Type: domain.FieldSkills,
			Queries:  []string{"technical skills and competencies"},
			Aliases:  []string{"technical skills", "competencies", "abilities", "expertise", "proficiencies", "technologies"},
			Examples: []string{"Python, JavaScript, React"},
		},
		{
			Key: "programming_languages", Label: "Programming Languages", Type: domain.FieldSkills,
			Queries:  []string{"programming and coding languages used"},
			Aliases:  []string{"coding languages", "languages", "programming skills", "development languages"},
			Examples: []string{"Go, Java, SQL"},
		},
		{
			Key: "certifications", Label: "Certifications", Type: domain.FieldOther,
			Queries:  []string{"certifications and professional credentials"},
			Aliases:  []string{"certificates", "credentials", "licenses", "professional certifications", "qualifications"},
			Examples: []string{"AWS Certified"},
		},
		{
			Key: "linkedin", Label: "LinkedIn", Type: domain.FieldContact,
			Queries:   []string{"What is the person's LinkedIn profile URL or LinkedIn username? Look for linkedin.com links or LinkedIn profiles."},
			Aliases:   []string{"linkedin profile", "linkedin url", "professional profile", "linkedin link"},
			Examples:  []string{"linkedin.com/in/johnsmith"},
			Validator: validators["linkedin"],
		},
		{
			Key: "github", Label: "GitHub", Type: domain.FieldContact,
			Queries:   []string{"What is the person's GitHub profile URL or GitHub username? Look for github.com links or GitHub profiles."},
			Aliases:   []string{"github profile", "github username", "github url", "git profile"},
			Examples:  []string{"github.com/johnsmith"},
			Validator: validators["github"],
		},
		{
			Key: "portfolio", Label: "Portfolio", Type: domain.FieldLink,
			Queries:   []string{"portfolio website or personal website"},
			Aliases:   []string{"website", "personal website", "portfolio url", "portfolio link", "web portfolio"},
			Examples:  []string{"johnsmith.com"},
			Validator: validators["url"],
		},
		{
			Key: "salary_expectation", Label: "Salary Expectation", Type: domain.FieldOther,
			Queries:  []string{"salary expectation or desired salary"},
			Aliases:  []string{"expected salary", "desired salary", "salary range", "compensation expectation"},
			Examples: []string{"$80,000"},
		},
	}
}
