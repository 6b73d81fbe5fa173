package types

// EmployeeSummary is the minimal employee info for lists.
type EmployeeSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Title      string `json:"title,omitempty"`
	Department string `json:"department,omitempty"`
	Unit       string `json:"unit,omitempty"`
	Location   string `json:"location,omitempty"`
	Email      string `json:"email,omitempty"`
}

// EmployeeDetail is the full employee record from the directory store.
// YearsOfExperience is derived from the start date and formatted with one
// decimal place, or "N/A" when the start date is unknown.
type EmployeeDetail struct {
	EmployeeSummary
	FirstName         string `json:"first_name,omitempty"`
	LastName          string `json:"last_name,omitempty"`
	EmployeeID        string `json:"employee_id,omitempty"`
	JobCode           string `json:"job_code,omitempty"`
	ProjectRole       string `json:"project_role,omitempty"`
	ExperienceLevel   string `json:"experience_level,omitempty"`
	Manager           string `json:"manager,omitempty"`
	ManagerAlias      string `json:"manager_alias,omitempty"`
	Company           string `json:"company,omitempty"`
	Phone             string `json:"phone,omitempty"`
	Office            string `json:"office,omitempty"`
	Division          string `json:"division,omitempty"`
	StartDate         string `json:"start_date,omitempty"`
	YearsOfExperience string `json:"years_of_experience"`
}
