package analyses

import (
	"errors"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/openaudit/openaudit-visualizer/internal/openaudit"
	"github.com/openaudit/openaudit-visualizer/internal/shared"
)

// ErrSubjectRequired is returned when neither an LGU nor a report is given.
var ErrSubjectRequired = errors.New("either an LGU or a report is required")

type submitForm struct {
	LGUID        *int64 `validate:"omitempty,gt=0"`
	ReportID     *int64 `validate:"omitempty,gt=0"`
	AnalysisType string `validate:"required,oneof=summary risk_assessment recommendations"`
	CustomPrompt string `validate:"omitempty,max=4000"`
	ReturnTo     string
}

func parseSubmitForm(values url.Values) (submitForm, error) {
	var f submitForm
	var err error
	if f.LGUID, err = shared.OptionalInt64(values, "lgu_id"); err != nil {
		return f, err
	}
	if f.ReportID, err = shared.OptionalInt64(values, "report_id"); err != nil {
		return f, err
	}
	f.AnalysisType = strings.TrimSpace(values.Get("analysis_type"))
	f.CustomPrompt = strings.TrimSpace(values.Get("custom_prompt"))
	f.ReturnTo = values.Get("return_to")
	return f, nil
}

func (f submitForm) validate(v *validator.Validate) error {
	if err := v.Struct(f); err != nil {
		return err
	}
	if f.LGUID == nil && f.ReportID == nil {
		return ErrSubjectRequired
	}
	return nil
}

// request builds the backend body. model is sent only when configured.
func (f submitForm) request(model string) openaudit.AnalysisRequest {
	req := openaudit.AnalysisRequest{
		LGUID:        f.LGUID,
		ReportID:     f.ReportID,
		AnalysisType: f.AnalysisType,
	}
	if f.CustomPrompt != "" {
		prompt := f.CustomPrompt
		req.CustomPrompt = &prompt
	}
	if model != "" {
		req.Model = &model
	}
	return req
}

// safeRedirect keeps redirects on this site.
func safeRedirect(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	return target
}

func validationMessage(err error) string {
	var invalid shared.InvalidParamError
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, ErrSubjectRequired):
		return "Choose an LGU or a report to analyze."
	case errors.As(err, &invalid):
		return "Invalid " + invalid.Field + "."
	case errors.As(err, &verrs) && len(verrs) > 0:
		switch verrs[0].Field() {
		case "AnalysisType":
			return "Choose a valid analysis type."
		case "CustomPrompt":
			return "The custom prompt is too long."
		default:
			return "Invalid " + strings.ToLower(verrs[0].Field()) + "."
		}
	}
	return "The analysis request is invalid."
}
