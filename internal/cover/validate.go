package cover

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"coverserver/internal/wcag"
)

// validatedFields is the declaration order of checked fields; error lists are
// emitted in this order so rejections are deterministic.
var validatedFields = []string{
	"width", "height", "title", "subtitle", "font",
	"backgroundColor", "textColor", "contrast",
}

// Validator turns raw request parameters into a normalized Request or an
// ordered list of field errors. All rules are evaluated; errors accumulate
// rather than short-circuiting on the first failure.
type Validator struct {
	maxTitleLen    int
	maxSubtitleLen int
	fonts          []string
	validate       *validator.Validate
}

// ValidatorOptions overrides the validator defaults. Zero values keep the
// stock limits and font list.
type ValidatorOptions struct {
	MaxTitleLen    int
	MaxSubtitleLen int
	Fonts          []string
}

// NewValidator constructs a Validator.
func NewValidator(opts ValidatorOptions) *Validator {
	v := &Validator{
		maxTitleLen:    opts.MaxTitleLen,
		maxSubtitleLen: opts.MaxSubtitleLen,
		fonts:          opts.Fonts,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
	}
	if v.maxTitleLen <= 0 {
		v.maxTitleLen = DefaultMaxTitleLen
	}
	if v.maxSubtitleLen <= 0 {
		v.maxSubtitleLen = DefaultMaxSubtitleLen
	}
	if len(v.fonts) == 0 {
		v.fonts = DefaultFonts
	}
	return v
}

// Validate evaluates every rule against the merged parameters. It returns a
// normalized Request when all rules pass, or a non-empty error list in field
// declaration order. A dimension that does not parse as an integer is
// reported once and skipped for the bounds check; an unparseable color is
// reported once and skipped for the contrast gate.
func (v *Validator) Validate(params RawParams) (*Request, []FieldError) {
	errs := map[string][]FieldError{}
	add := func(field, message string) {
		errs[field] = append(errs[field], FieldError{Field: field, Message: message})
	}

	width := v.dimension(params, "width", add)
	height := v.dimension(params, "height", add)

	title := params["title"]
	if err := v.validate.Var(title, fmt.Sprintf("required,max=%d", v.maxTitleLen)); err != nil {
		add("title", varMessage(err, v.maxTitleLen))
	}

	subtitle := params["subtitle"]
	if err := v.validate.Var(subtitle, fmt.Sprintf("omitempty,max=%d", v.maxSubtitleLen)); err != nil {
		add("subtitle", varMessage(err, v.maxSubtitleLen))
	}

	font, ok := v.canonicalFont(params["font"])
	if !ok {
		add("font", fmt.Sprintf("unsupported font %q", params["font"]))
	}

	background, bgOK := v.color(params, "backgroundColor", add)
	text, textOK := v.color(params, "textColor", add)

	var ratio float64
	var level wcag.Level
	if bgOK && textOK {
		ratio = wcag.ContrastRatioRGB(background, text)
		level = wcag.LevelFor(ratio)
		// Hard accessibility gate: nothing below AA renders.
		if ratio < wcag.RatioAA {
			add("contrast", fmt.Sprintf(
				"contrast ratio %.2f is below the WCAG AA minimum of %.1f (level %s)",
				ratio, wcag.RatioAA, level))
		}
	}

	if len(errs) > 0 {
		var ordered []FieldError
		for _, field := range validatedFields {
			ordered = append(ordered, errs[field]...)
		}
		return nil, ordered
	}

	filename := strings.TrimSpace(params["filename"])
	if filename == "" {
		filename = DefaultFilename
	}

	return &Request{
		Width:           width,
		Height:          height,
		BackgroundColor: params["backgroundColor"],
		TextColor:       params["textColor"],
		Font:            font,
		Title:           title,
		Subtitle:        subtitle,
		Filename:        filename,
		ContrastRatio:   ratio,
		Level:           level,
	}, nil
}

// Fonts returns the configured allow-list.
func (v *Validator) Fonts() []string {
	return v.fonts
}

func (v *Validator) dimension(params RawParams, field string, add func(field, message string)) int {
	raw, present := params[field]
	if !present || raw == "" {
		add(field, "is required")
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		add(field, fmt.Sprintf("%q is not an integer", raw))
		return 0
	}
	if err := v.validate.Var(value, fmt.Sprintf("gte=%d,lte=%d", MinDimension, MaxDimension)); err != nil {
		add(field, fmt.Sprintf("must be between %d and %d", MinDimension, MaxDimension))
	}
	return value
}

func (v *Validator) color(params RawParams, field string, add func(field, message string)) (wcag.RGB, bool) {
	rgb, ok := wcag.HexToRGB(params[field])
	if !ok {
		add(field, fmt.Sprintf("%q is not a valid hex color", params[field]))
		return wcag.RGB{}, false
	}
	return rgb, true
}

// canonicalFont matches the requested font against the allow-list, ignoring
// case, and returns the canonical family name. A cases.Caser is stateful, so
// one is built per call rather than shared on the Validator.
func (v *Validator) canonicalFont(name string) (string, bool) {
	candidate := cases.Title(language.English).String(strings.TrimSpace(name))
	for _, want := range v.fonts {
		if strings.EqualFold(candidate, want) {
			return want, true
		}
	}
	return "", false
}

// varMessage renders a validator error for a single-value check.
func varMessage(err error, limit int) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	switch verrs[0].Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %d characters", limit)
	default:
		return fmt.Sprintf("failed validation %q", verrs[0].Tag())
	}
}
