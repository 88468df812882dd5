package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/noah-isme/fleet-compliance-api/pkg/compliance"
)

// ruleFile is the TOML layout read by classify:
//
//	[[rules]]
//	name = "cdl"
//	anchor_field = "cdl_issue_date"
//	warning_window_days = 30
//	[rules.validity]
//	kind = "explicit"
//	field = "cdl_expiration_date"
type ruleFile struct {
	Rules []compliance.ExpirationRule `toml:"rules"`
}

type classifyOptions struct {
	rulesPath   string
	recordsPath string
	rule        string
	now         string
	sort        string
	order       string
	search      string
	fields      []string
	asJSON      bool
}

type classifiedRow struct {
	Record   compliance.Fields            `json:"record"`
	Statuses map[string]compliance.Status `json:"statuses"`
}

type classifyReport struct {
	AsOf   string                               `json:"as_of"`
	Rows   []classifiedRow                      `json:"rows"`
	Counts map[string]compliance.CategoryCounts `json:"counts"`
}

func newClassifyCmd() *cobra.Command {
	opts := &classifyOptions{}
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify JSON records against TOML expiration rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd.OutOrStdout(), opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.rulesPath, "rules", "", "TOML rule file")
	flags.StringVar(&opts.recordsPath, "records", "", "JSON array of records")
	flags.StringVar(&opts.rule, "rule", "", "only apply the named rule")
	flags.StringVar(&opts.now, "now", "", "reference date, defaults to today")
	flags.StringVar(&opts.sort, "sort", "", "field to sort records by")
	flags.StringVar(&opts.order, "order", "asc", "sort order, asc or desc")
	flags.StringVar(&opts.search, "search", "", "keep records whose --fields contain this text")
	flags.StringSliceVar(&opts.fields, "fields", nil, "fields searched by --search")
	flags.BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")
	_ = cmd.MarkFlagRequired("rules")
	_ = cmd.MarkFlagRequired("records")
	return cmd
}

func runClassify(out io.Writer, opts *classifyOptions) error {
	rules, err := loadRules(opts.rulesPath, opts.rule)
	if err != nil {
		return err
	}
	records, err := loadRecords(opts.recordsPath)
	if err != nil {
		return err
	}

	now := time.Now()
	if opts.now != "" {
		parsed, ok := compliance.ParseDate(opts.now)
		if !ok {
			return fmt.Errorf("invalid --now %q", opts.now)
		}
		now = parsed
	}

	if opts.search != "" && len(opts.fields) == 0 {
		return fmt.Errorf("--search needs --fields")
	}
	records = compliance.FilterRecords(records, opts.search, opts.fields)
	if opts.sort != "" {
		records = compliance.SortRecords(records, compliance.ParseSortSpec(opts.sort, opts.order))
	}

	report := classifyReport{
		AsOf:   now.Format("2006-01-02"),
		Rows:   make([]classifiedRow, 0, len(records)),
		Counts: make(map[string]compliance.CategoryCounts, len(rules)),
	}
	for _, rec := range records {
		row := classifiedRow{Record: rec, Statuses: make(map[string]compliance.Status, len(rules))}
		for _, rule := range rules {
			status := compliance.Classify(rec, rule, now)
			row.Statuses[rule.Name] = status
			counts := report.Counts[rule.Name]
			counts.Add(status.Category)
			report.Counts[rule.Name] = counts
		}
		report.Rows = append(report.Rows, row)
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return printTable(out, rules, report)
}

func loadRules(path, only string) ([]compliance.ExpirationRule, error) {
	var file ruleFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	rules := make([]compliance.ExpirationRule, 0, len(file.Rules))
	for _, rule := range file.Rules {
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		if only == "" || rule.Name == only {
			rules = append(rules, rule)
		}
	}
	if len(rules) == 0 {
		if only != "" {
			return nil, fmt.Errorf("rule %q not found in %s", only, path)
		}
		return nil, fmt.Errorf("no rules in %s", path)
	}
	return rules, nil
}

func loadRecords(path string) ([]compliance.Fields, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	var records []compliance.Fields
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("records must be a JSON array of objects: %w", err)
	}
	return records, nil
}

func printTable(out io.Writer, rules []compliance.ExpirationRule, report classifyReport) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	header := []string{"RECORD"}
	for _, rule := range rules {
		header = append(header, strings.ToUpper(rule.Name))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for i, row := range report.Rows {
		cells := []string{recordLabel(row.Record, i)}
		for _, rule := range rules {
			status := row.Statuses[rule.Name]
			cells = append(cells, fmt.Sprintf("%s (%s)", status.Category, status.Label()))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nas of %s\n", report.AsOf)
	for _, rule := range rules {
		c := report.Counts[rule.Name]
		fmt.Fprintf(out, "%s: valid=%d expiring=%d expired=%d unknown=%d\n", rule.Name, c.Valid, c.Expiring, c.Expired, c.Unknown)
	}
	return nil
}

func recordLabel(rec compliance.Fields, index int) string {
	for _, key := range []string{"id", "name", "unit_number"} {
		if value, ok := rec[key]; ok && value != nil {
			return fmt.Sprint(value)
		}
	}
	return fmt.Sprintf("#%d", index+1)
}
