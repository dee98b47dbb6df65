package project

import (
	"autotune/common/config"
	"autotune/common/utils/maths"
	"fmt"

	"github.com/flosch/pongo2/v5"
	"gopkg.in/yaml.v3"
)

type ReportField struct {
	Field string `yaml:"field"`
	Value int64  `yaml:"value"`
}

// AutotuneReport describes one tuning run of one stepper.
type AutotuneReport struct {
	Stepper           string          `yaml:"stepper"`
	Driver            string          `yaml:"driver"`
	Motor             string          `yaml:"motor"`
	Requested_goal    string          `yaml:"requested_goal"`
	Tuning_goal       string          `yaml:"tuning_goal"`
	Experimental      bool            `yaml:"experimental,omitempty"`
	Fingerprint       string          `yaml:"fingerprint"`
	Fclk              float64         `yaml:"fclk"`
	Voltage           float64         `yaml:"voltage"`
	Current           float64         `yaml:"run_current"`
	Extra_hysteresis  int             `yaml:"extra_hysteresis"`
	Fields            []ReportField   `yaml:"fields"`
	Hysteresis        []int           `yaml:"hysteresis,flow,omitempty"`
	Hysteresis_set    bool            `yaml:"hysteresis_applied"`
	Pwm_grad          int             `yaml:"pwm_grad"`
	Pwm_ofs           int             `yaml:"pwm_ofs"`
	Max_pwm_rps       string          `yaml:"max_pwm_rps"`
	Sgt               int             `yaml:"sgt"`
	Sg4_thrs          int             `yaml:"sg4_thrs"`
	Tpfd              *int            `yaml:"tpfd,omitempty"`
	Overvoltage_vth   *float64        `yaml:"overvoltage_vth,omitempty"`
	Coolstep_defaults config.CoolStep `yaml:"coolstep_defaults"`
	Errors            []string        `yaml:"errors,omitempty"`
}

func format_rps(rps float64) string {
	if !maths.IsFinite(rps) {
		return "unlimited"
	}
	return fmt.Sprintf("%.2f", rps)
}

func New_autotune_report(set *ResolvedRegisterSet) *AutotuneReport {
	report := &AutotuneReport{
		Stepper:        set.Stepper,
		Tuning_goal:    set.Goal.String(),
		Fingerprint:    set.Fingerprint(),
		Hysteresis_set: set.Apply_hysteresis && set.Hysteresis_valid,
		Pwm_grad:       set.Pwm_grad,
		Pwm_ofs:        set.Pwm_ofs,
		Max_pwm_rps:    format_rps(set.Max_pwm_rps),
	}
	for _, fv := range set.Field_values() {
		report.Fields = append(report.Fields, ReportField{fv.Field, fv.Value})
	}
	if set.Hysteresis_valid {
		report.Hysteresis = []int{set.Hstrt, set.Hend}
	}
	return report
}

var summary_template = pongo2.Must(pongo2.FromString(
	"{% autoescape off %}{{ stepper }}: {{ goal }} ({{ fingerprint }})\n" +
		"{% for f in fields %}{{ f.Field }}={{ f.Value }}{% if not forloop.Last %} {% endif %}{% endfor %}" +
		"{% endautoescape %}"))

var report_template = pongo2.Must(pongo2.FromString(`{% autoescape off %}{% for r in reports %}[{{ r.Stepper }}] {{ r.Driver }}, motor {{ r.Motor }}
  tuning goal: {{ r.Requested_goal }} -> {{ r.Tuning_goal }}{% if r.Experimental %} (experimental){% endif %}
  clock: {{ r.Fclk|floatformat:0 }} Hz, supply: {{ r.Voltage|floatformat:1 }} V, run current: {{ r.Current|floatformat:2 }} A
  fields:{% for f in r.Fields %} {{ f.Field }}={{ f.Value }}{% endfor %}
{% if r.Hysteresis %}  hysteresis: hstrt={{ r.Hysteresis.0 }} hend={{ r.Hysteresis.1 }}{% if not r.Hysteresis_set %} (advisory){% endif %}
{% endif %}  pwm_grad={{ r.Pwm_grad }} pwm_ofs={{ r.Pwm_ofs }} max PWM rps: {{ r.Max_pwm_rps }}
  coolstep defaults: semin={{ r.Coolstep_defaults.Semin }} semax={{ r.Coolstep_defaults.Semax }} seup={{ r.Coolstep_defaults.Seup }} sedn={{ r.Coolstep_defaults.Sedn }}
  fingerprint: {{ r.Fingerprint }}
{% for e in r.Errors %}  error: {{ e }}
{% endfor %}{% endfor %}{% endautoescape %}`))

// Render_summary is the AUTOTUNE_TMC response: goal, fingerprint and fields.
func Render_summary(set *ResolvedRegisterSet) string {
	var fields []ReportField
	for _, fv := range set.Field_values() {
		fields = append(fields, ReportField{fv.Field, fv.Value})
	}
	out, err := summary_template.Execute(pongo2.Context{
		"stepper":     set.Stepper,
		"goal":        set.Goal.String(),
		"fingerprint": set.Fingerprint(),
		"fields":      fields,
	})
	if err != nil {
		return fmt.Sprintf("%s: %s", set.Stepper, set.Goal)
	}
	return out
}

// Render_reports formats reports as "text" or "yaml".
func Render_reports(reports []*AutotuneReport, format string) ([]byte, error) {
	switch format {
	case "yaml":
		return yaml.Marshal(map[string]interface{}{"autotune": reports})
	case "text", "":
		out, err := report_template.Execute(pongo2.Context{"reports": reports})
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	}
	return nil, fmt.Errorf("unknown report format '%s'", format)
}
