package service

import (
	"fmt"

	"github.com/noah-isme/fleet-compliance-api/pkg/compliance"
	"github.com/noah-isme/fleet-compliance-api/pkg/config"
)

// Rule names exposed in summaries, alerts and metrics.
const (
	RuleCDL                    = "cdl"
	RuleMedical                = "medical"
	RuleMaintenanceReview      = "maintenance_review"
	RuleAnnualInspection       = "annual_inspection"
	RuleInspectorCertification = "inspector_certification"
)

// ComplianceRules is the fleet rule set. Windows come from configuration.
type ComplianceRules struct {
	CDL                    compliance.ExpirationRule
	Medical                compliance.ExpirationRule
	MaintenanceReview      compliance.ExpirationRule
	AnnualInspection       compliance.ExpirationRule
	InspectorCertification compliance.ExpirationRule
}

// NewComplianceRules builds and validates every rule.
func NewComplianceRules(cfg config.ComplianceConfig) (*ComplianceRules, error) {
	var (
		rules ComplianceRules
		err   error
	)
	build := func(dst *compliance.ExpirationRule, name, anchor string, validity compliance.ValidityPeriod, window int) {
		if err != nil {
			return
		}
		var rule compliance.ExpirationRule
		rule, err = compliance.NewExpirationRule(name, anchor, validity, window)
		if err != nil {
			err = fmt.Errorf("rule %s: %w", name, err)
			return
		}
		*dst = rule
	}

	build(&rules.CDL, RuleCDL, "cdl_issue_date", compliance.Explicit("cdl_expiration_date"), cfg.CDLWarningDays)
	build(&rules.Medical, RuleMedical, "medical_exam_date", compliance.Explicit("medical_card_expiration_date"), cfg.MedicalWarningDays)
	build(&rules.MaintenanceReview, RuleMaintenanceReview, "last_maintenance_review_date", compliance.Duration(1, 0), cfg.MaintenanceWarningDays)
	build(&rules.AnnualInspection, RuleAnnualInspection, "inspection_date", compliance.Duration(1, 0), cfg.InspectionWarningDays)
	build(&rules.InspectorCertification, RuleInspectorCertification, "certification_date", compliance.Explicit("certification_expiry_date"), cfg.InspectorWarningDays)
	if err != nil {
		return nil, err
	}
	return &rules, nil
}

// All returns the rules in display order.
func (r *ComplianceRules) All() []compliance.ExpirationRule {
	return []compliance.ExpirationRule{r.CDL, r.Medical, r.MaintenanceReview, r.AnnualInspection, r.InspectorCertification}
}
