package seeders

import (
	"context"
	"log"

	"campus-approvals/internal/forms"
	"campus-approvals/internal/models"
	"campus-approvals/internal/repository"
)

// SeedFormTemplates creates or updates the built-in form templates.
// Existing templates are refreshed in place so field changes roll out on
// deploy without touching submitted requests.
func SeedFormTemplates(ctx context.Context, templates repository.TemplateRepositoryInterface) error {
	builtin := []models.FormTemplate{
		{
			Name:              "FERPA Authorization Form",
			FormCode:          "ferpa_auth",
			LatexTemplatePath: "latex/ferpa_template.tex",
			Fields:            ferpaFields.MustJSON(),
		},
		{
			Name:              "General Petition Form",
			FormCode:          "general_petition",
			LatexTemplatePath: "latex/general_petition_template.tex",
			Fields:            generalPetitionFields.MustJSON(),
		},
	}

	for i := range builtin {
		template := &builtin[i]
		if err := templates.SeedTemplate(ctx, template); err != nil {
			log.Printf("Failed to seed form template %s: %v", template.FormCode, err)
			return err
		}
		log.Printf("Seeded form template: %s", template.FormCode)
	}

	return nil
}

var ferpaFields = forms.Schema{
	{Name: "student_name", Type: forms.FieldText},
	{Name: "peoplesoft_id", Type: forms.FieldText},
	{Name: "date", Type: forms.FieldDate},
	{Name: "campus", Type: forms.FieldSelect, Options: []string{
		"Clear Lake", "Downtown", "Main", "Victoria",
	}},
	{Name: "authorized_offices", Type: forms.FieldMultiSelect, Options: []string{
		"Registrar", "Financial Aid", "Student Business Services",
		"University Advancement", "Dean of Students Office", "Other",
	}},
	{Name: "info_types", Type: forms.FieldMultiSelect, Options: []string{
		"Academic Records", "Academic Advising Profile/Information",
		"All University Records", "Grades/Transcripts", "Billing/Financial Aid",
		"Disciplinary", "Housing", "Photos", "Scholarship/Honors", "Other",
	}},
	{Name: "release_to", Type: forms.FieldText},
	{Name: "purpose_of_disclosure", Type: forms.FieldSelect, Options: []string{
		"Family", "Educational Institution", "Employer",
		"Public or Media of Scholarship", "Other",
	}},
	{Name: "phone_password", Type: forms.FieldText},
	{Name: "signature", Type: forms.FieldFile},
}

var generalPetitionFields = forms.Schema{
	{Name: "student_name", Type: forms.FieldText},
	{Name: "student_id", Type: forms.FieldText},
	{Name: "phone_number", Type: forms.FieldText},
	{Name: "mailing_address", Type: forms.FieldText},
	{Name: "city", Type: forms.FieldText},
	{Name: "state", Type: forms.FieldText},
	{Name: "zip", Type: forms.FieldText},
	{Name: "email", Type: forms.FieldEmail},
	{Name: "degree_type", Type: forms.FieldText},
	{Name: "petition_number", Type: forms.FieldSelect, Options: []string{
		"1. Update Student's Program Status",
		"2. Admission Status Change",
		"3. Add New Career",
		"4. Program Change",
		"5. Major Change",
		"6. Degree Objective Change",
		"7. Requirement Term",
		"8. Additional Plan",
		"9. Add Second Degree",
		"10. Remove/Change Minor",
		"11. Add Additional Minor",
		"12. Degree Requirement Exception",
		"13. Special Problems Course Request",
		"14. Course Overload",
		"15. Graduate Studies Leave of Absence",
		"16. Graduate Studies Reinstatement",
		"17. Other",
	}},
	{Name: "explanation_of_request", Type: forms.FieldTextarea},
	{Name: "signature", Type: forms.FieldFile},
	{Name: "date", Type: forms.FieldAutoDate},
}
