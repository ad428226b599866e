package onboarding

// DefaultConfig returns the product wizard: seven steps from role selection to
// personal links.
func DefaultConfig() *Config {
	text := func(name, label, placeholder, validator string) FieldSchema {
		return FieldSchema{Name: name, Label: label, Kind: KindText, Placeholder: placeholder, Validator: validator}
	}
	pick := func(name, label, options, placeholder string) FieldSchema {
		return FieldSchema{Name: name, Label: label, Kind: KindSelect, Options: options, Placeholder: placeholder}
	}

	return &Config{
		Steps: []Step{
			{
				Name:   "Roles",
				Header: "Great! Let's build your profile to start.",
				Fields: []FieldSchema{
					text("firstName", "First Name", "Thippareddy", "firstName"),
					text("lastName", "Last Name", "Sai Charan", "lastName"),
					{Name: "hear", Label: "How'd you hear about Elevate Box?", Kind: KindMultiSelect, Options: "hear", Placeholder: "Choose from below"},
				},
			},
			{
				Name:   "Education",
				Header: "Tell us about your education.",
				Fields: []FieldSchema{
					pick("schoolName", "School", "school", "Select an option"),
					pick("major", "Major", "major", "Select an option"),
					pick("degreeType", "Degree Type", "degree_type", "Select an option"),
					text("gpa", "GPA", "3.8", ""),
					pick("educationStartMonth", "Start Month", "month", "Select an option"),
					pick("educationStartYear", "Start Year", "year", "Select an option"),
					pick("educationEndMonth", "End Month", "month", "Select an option"),
					pick("educationEndYear", "End Year", "year", "Select an option"),
				},
			},
			{
				Name:   "Experience",
				Header: "Add your most recent work experience.",
				Fields: []FieldSchema{
					pick("company", "Company", "company", "Select an option"),
					pick("companyLocation", "Location", "location", "Select an option"),
					pick("companyLocationType", "Location Type", "location_type", "Select an option"),
					pick("companyExperienceType", "Experience Type", "experience_type", "Select an option"),
					pick("jobStartMonth", "Start Month", "month", "Select an option"),
					pick("jobStartYear", "Start Year", "year", "Select an option"),
					pick("jobEndMonth", "End Month", "month", "Select an option"),
					pick("jobEndYear", "End Year", "year", "Select an option"),
				},
			},
			{
				Name:   "Skills",
				Header: "Let's not forget to show off your skills too.",
				Fields: []FieldSchema{
					{Name: "skills", Label: "Skills", Kind: KindMultiSelect, Options: "skills", Placeholder: "Select all that apply"},
				},
			},
			{
				Name:   "EEO",
				Header: "Next add your equal employment information.",
				Fields: []FieldSchema{
					pick("ethnicity", "What is your ethnicity?", "ethnicity", "Select all apply"),
					pick("disability", "Do you have a disability?", "eeo_answer", "Select an option"),
					pick("veteran", "Are you veteran?", "eeo_answer", "Select an option"),
					pick("gender", "What is your gender?", "gender", "Select an option"),
				},
			},
			{
				Name:   "Personal",
				Header: "Almost there! A few last questions.",
				Fields: []FieldSchema{
					pick("currentLocation", "Where are you currently located?", "location", "Select an option"),
					text("dob", "What is your Date of Birth?", "03 December 2000", ""),
					{Name: "phoneNumber", Label: "What is your phone number?", Kind: KindText, Placeholder: "9515235212", Prefix: "+91"},
					text("facebook", "Facebook", "Facebook", ""),
					text("twitter", "Twitter", "Twitter", ""),
					text("instagram", "Instagram", "Instagram", ""),
					text("reddit", "Reddit", "Reddit", ""),
				},
			},
			{
				Name:   "Links",
				Header: "Last Step, add your personal links.",
				Fields: []FieldSchema{
					text("linkedin", "Linkedin", "https://www.linkedin.com/in/your-name/", ""),
					text("github", "Github", "https://github.com/your-name", ""),
					text("portfolio", "Portfolio", "https://your-site.example/", ""),
					text("otherLink", "Others", "anyotherlinks.com", ""),
				},
			},
		},
		Options: map[string][]string{
			"hear":            {"Web", "Linkedin"},
			"school":          {"SASTRA UNIVERSITY", "NIT TRICHY"},
			"major":           {"Computer Science", "Electronics", "Mechanical", "Business"},
			"degree_type":     {"Bachelor's", "Master's", "Doctorate", "Diploma"},
			"company":         {"SASTRA UNIVERSITY", "NIT TRICHY"},
			"location":        {"Hyderabad", "Chennai"},
			"location_type":   {"On-site", "Remote", "Hybrid"},
			"experience_type": {"Full-time", "Part-time", "Internship", "Contract"},
			"skills":          {"Python", "Javascript"},
			"ethnicity":       {"ASIAN", "AMERICAN", "EUROPEAN"},
			"eeo_answer":      {"Yes", "No", "Decline to State"},
			"gender":          {"Male", "Female", "Other", "Decline to State"},
			"month": {
				"January", "February", "March", "April", "May", "June",
				"July", "August", "September", "October", "November", "December",
			},
			"year": {
				"2024", "2023", "2022", "2021", "2020", "2019",
				"2018", "2017", "2016", "2015", "1998",
			},
		},
	}
}
