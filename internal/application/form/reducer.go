package form

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Field names as they appear on the wire.
const (
	FieldFirstName          = "firstName"
	FieldLastName           = "lastName"
	FieldEmail              = "email"
	FieldPhone              = "phone"
	FieldAddress            = "address"
	FieldCity               = "city"
	FieldState              = "state"
	FieldZipCode            = "zipCode"
	FieldCurrentPosition    = "currentPosition"
	FieldCurrentCompany     = "currentCompany"
	FieldYearsExperience    = "yearsExperience"
	FieldEducation          = "education"
	FieldSkills             = "skills"
	FieldCertifications     = "certifications"
	FieldResume             = "resume"
	FieldCoverLetter        = "coverLetter"
	FieldPortfolio          = "portfolio"
	FieldAvailableStartDate = "availableStartDate"
	FieldSalaryExpectation  = "salaryExpectation"
	FieldAdditionalInfo     = "additionalInfo"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrInvalidValue = errors.New("invalid value")
)

// FieldChanged is the message a step sends to request a change to the aggregate.
type FieldChanged struct {
	Field string
	Value interface{}
}

func stringFields(fd *FormData) map[string]*string {
	return map[string]*string{
		FieldFirstName:          &fd.FirstName,
		FieldLastName:           &fd.LastName,
		FieldEmail:              &fd.Email,
		FieldPhone:              &fd.Phone,
		FieldAddress:            &fd.Address,
		FieldCity:               &fd.City,
		FieldState:              &fd.State,
		FieldZipCode:            &fd.ZipCode,
		FieldCurrentPosition:    &fd.CurrentPosition,
		FieldCurrentCompany:     &fd.CurrentCompany,
		FieldYearsExperience:    &fd.YearsExperience,
		FieldEducation:          &fd.Education,
		FieldAvailableStartDate: &fd.AvailableStartDate,
		FieldSalaryExpectation:  &fd.SalaryExpectation,
		FieldAdditionalInfo:     &fd.AdditionalInfo,
	}
}

func fileFields(fd *FormData) map[string]**File {
	return map[string]**File{
		FieldResume:      &fd.Resume,
		FieldCoverLetter: &fd.CoverLetter,
		FieldPortfolio:   &fd.Portfolio,
	}
}

var enumerations = map[string][]string{
	FieldYearsExperience: YearsExperienceOptions,
	FieldEducation:       EducationOptions,
}

// IsFileField reports whether name is one of the document slots.
func IsFileField(name string) bool {
	_, ok := fileFields(&FormData{})[name]
	return ok
}

// Apply applies a single change in place. On error fd is left untouched.
func Apply(fd *FormData, change FieldChanged) error {
	if target, ok := stringFields(fd)[change.Field]; ok {
		s, ok := change.Value.(string)
		if !ok {
			return fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidValue, change.Field, change.Value)
		}
		if opts, enum := enumerations[change.Field]; enum && s != "" && !contains(opts, s) {
			return fmt.Errorf("%w: %s must be one of %v", ErrInvalidValue, change.Field, opts)
		}
		*target = s
		return nil
	}

	if target, ok := fileFields(fd)[change.Field]; ok {
		switch v := change.Value.(type) {
		case nil:
			*target = nil
		case *File:
			*target = v
		default:
			return fmt.Errorf("%w: %s must be a file, got %T", ErrInvalidValue, change.Field, change.Value)
		}
		return nil
	}

	switch change.Field {
	case FieldSkills:
		list, err := toStrings(change.Field, change.Value)
		if err != nil {
			return err
		}
		fd.Skills = dedupe(list)
		return nil
	case FieldCertifications:
		list, err := toStrings(change.Field, change.Value)
		if err != nil {
			return err
		}
		fd.Certifications = list
		return nil
	}

	return fmt.Errorf("%w: %q", ErrUnknownField, change.Field)
}

// ApplyAll applies changes in order, all or nothing.
func ApplyAll(fd *FormData, changes ...FieldChanged) error {
	next := fd.Clone()
	for _, c := range changes {
		if err := Apply(next, c); err != nil {
			return err
		}
	}
	*fd = *next
	return nil
}

// FromPatch turns a shallow JSON patch into ordered FieldChanged messages.
// Keys absent from the patch are left alone.
func FromPatch(patch map[string]interface{}) []FieldChanged {
	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	changes := make([]FieldChanged, 0, len(keys))
	for _, k := range keys {
		changes = append(changes, FieldChanged{Field: k, Value: patch[k]})
	}
	return changes
}

// AddSkill appends skill unless an identical entry exists. Reports whether the
// list changed.
func AddSkill(fd *FormData, skill string) bool {
	skill = strings.TrimSpace(skill)
	if skill == "" || contains(fd.Skills, skill) {
		return false
	}
	fd.Skills = append(fd.Skills, skill)
	return true
}

// RemoveSkill drops the exact entry if present.
func RemoveSkill(fd *FormData, skill string) bool {
	var removed bool
	fd.Skills, removed = without(fd.Skills, skill)
	return removed
}

// AddCertification appends a certification. Duplicates are ignored the same way
// skills are.
func AddCertification(fd *FormData, cert string) bool {
	cert = strings.TrimSpace(cert)
	if cert == "" || contains(fd.Certifications, cert) {
		return false
	}
	fd.Certifications = append(fd.Certifications, cert)
	return true
}

func RemoveCertification(fd *FormData, cert string) bool {
	var removed bool
	fd.Certifications, removed = without(fd.Certifications, cert)
	return removed
}

func toStrings(field string, v interface{}) ([]string, error) {
	switch list := v.(type) {
	case []string:
		return append([]string{}, list...), nil
	case []interface{}:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s[%d] must be a string, got %T", ErrInvalidValue, field, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	case nil:
		return []string{}, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a list of strings, got %T", ErrInvalidValue, field, v)
	}
}

func dedupe(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if !contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func without(list []string, s string) ([]string, bool) {
	for i, item := range list {
		if item == s {
			return append(list[:i:i], list[i+1:]...), true
		}
	}
	return list, false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
