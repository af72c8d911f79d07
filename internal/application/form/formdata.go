// Package form holds the application form aggregate, the step predicates and the
// reducer that is the only way to change the aggregate.
package form

// File is an accepted upload held until the whole form is submitted.
type File struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType,omitempty"`
	Data        []byte `json:"data,omitempty"`
}

// Meta returns a copy without the payload, for views and logs.
func (f *File) Meta() *File {
	if f == nil {
		return nil
	}
	return &File{Name: f.Name, Size: f.Size, ContentType: f.ContentType}
}

// FormData is the single record holding every field collected across all steps.
type FormData struct {
	// Personal
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`

	// Experience
	CurrentPosition string   `json:"currentPosition"`
	CurrentCompany  string   `json:"currentCompany"`
	YearsExperience string   `json:"yearsExperience"`
	Education       string   `json:"education"`
	Skills          []string `json:"skills"`
	Certifications  []string `json:"certifications"`

	// Documents
	Resume      *File `json:"resume"`
	CoverLetter *File `json:"coverLetter"`
	Portfolio   *File `json:"portfolio"`

	// Additional
	AvailableStartDate string `json:"availableStartDate"`
	SalaryExpectation  string `json:"salaryExpectation"`
	AdditionalInfo     string `json:"additionalInfo"`
}

// New returns an aggregate with every field empty.
func New() *FormData {
	return &FormData{
		Skills:         []string{},
		Certifications: []string{},
	}
}

// Clone copies the aggregate. Files are shared because accepted files are never
// modified in place.
func (fd *FormData) Clone() *FormData {
	c := *fd
	c.Skills = append([]string{}, fd.Skills...)
	c.Certifications = append([]string{}, fd.Certifications...)
	return &c
}

// WithoutFileData is the aggregate as exposed to clients: file metadata only.
func (fd *FormData) WithoutFileData() *FormData {
	c := fd.Clone()
	c.Resume = fd.Resume.Meta()
	c.CoverLetter = fd.CoverLetter.Meta()
	c.Portfolio = fd.Portfolio.Meta()
	return c
}

// FullName joins first and last name for notifications and records.
func (fd *FormData) FullName() string {
	switch {
	case fd.FirstName == "":
		return fd.LastName
	case fd.LastName == "":
		return fd.FirstName
	default:
		return fd.FirstName + " " + fd.LastName
	}
}

var (
	// YearsExperienceOptions is the fixed enumeration offered by the experience step.
	YearsExperienceOptions = []string{"0-1", "1-3", "3-5", "5-10", "10+"}

	// EducationOptions is the fixed enumeration offered by the experience step.
	EducationOptions = []string{"high-school", "associate", "bachelor", "master", "phd", "other"}
)
