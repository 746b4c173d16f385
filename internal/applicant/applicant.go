package applicant

// Record holds the structured fields extracted from one resume.
// Every field is optional: the model frequently omits or blanks fields,
// and absence is never an error.
type Record struct {
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Education  Education  `json:"education"`
	Experience Experience `json:"experience"`
	Skills     []string   `json:"skills"`
	Summary    string     `json:"summary"`
}

// Education describes the candidate's most recent degree.
type Education struct {
	Degree      string `json:"degree"`
	Branch      string `json:"branch"`
	Institution string `json:"institution"`
	Year        *int   `json:"year"`
}

// Experience describes the candidate's most recent position.
type Experience struct {
	JobTitle string `json:"job_title"`
	Company  string `json:"company"`
}

// IsEmpty reports whether no field carries data. An all-default record is
// what enrichment produces when the model returned an empty object.
func (r Record) IsEmpty() bool {
	return r.Name == "" &&
		r.Email == "" &&
		r.Education == (Education{}) &&
		r.Experience == (Experience{}) &&
		len(r.Skills) == 0 &&
		r.Summary == ""
}
