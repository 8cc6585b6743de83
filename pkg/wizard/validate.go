package wizard

import "fmt"

// ValidationError names the first form field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("wizard: invalid %s: %s", e.Field, e.Reason)
}

// ValidateForm checks required fields, the vertical catalog, and the record
// count.
func ValidateForm(form Form) error {
	if form.CompanyName == "" {
		return &ValidationError{Field: "company_name", Reason: "required"}
	}
	if form.Domain == "" {
		return &ValidationError{Field: "domain", Reason: "required"}
	}
	if form.Audience == "" {
		return &ValidationError{Field: "audience", Reason: "required"}
	}
	if form.Vertical == "" {
		return &ValidationError{Field: "vertical", Reason: "required"}
	}
	if !KnownVertical(form.Vertical) {
		return &ValidationError{Field: "vertical", Reason: fmt.Sprintf("unknown vertical %q", form.Vertical)}
	}
	if options := SubVerticals[form.Vertical]; len(options) > 0 {
		if form.SubVertical == "" {
			return &ValidationError{Field: "sub_vertical", Reason: "required for vertical " + form.Vertical}
		}
		if !KnownSubVertical(form.Vertical, form.SubVertical) {
			return &ValidationError{Field: "sub_vertical", Reason: fmt.Sprintf("unknown sub-vertical %q", form.SubVertical)}
		}
	}
	if form.RecordsPerTable < 1 {
		return &ValidationError{Field: "records_per_table", Reason: "must be at least 1"}
	}
	return nil
}
