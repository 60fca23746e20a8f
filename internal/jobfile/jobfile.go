// Package jobfile loads extraction jobs from YAML: which sheet and rows to
// read, the mapping, and the query steps applied to the result.
//
//	sheet: Sheet1
//	start: 2
//	end: 10            # or until: "row > 10", or untilEmpty: A
//	rows:              # one template, or a list of templates for multi-row records
//	  name: A
//	  age: [B, "0"]
//	  total: [C, "#,##0.00", HALF_UP]
//	  seq: {expr: "row - 1"}
//	  printed: {cell: F1, format: "yyyy/MM/dd"}
//	query:
//	  - seek: [age, gt, 20]
//	  - sort: [age, desc]
//	  - orderBy: "dept ASC, age DESC"
//	  - select: "age > 20"
//	  - map: {name: name, age: [age, "#,##0"], label: {expr: "name + '!'"}}
package jobfile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/efwgrp/xlrecord"
	"gopkg.in/yaml.v3"
)

// ErrInvalidJob is wrapped by every validation failure.
var ErrInvalidJob = errors.New("invalid job")

// Step is one query operation applied to the extracted records.
type Step struct {
	Name  string
	apply func(*xlrecord.Record) *xlrecord.Record
}

// Job is a loaded, validated extraction job.
type Job struct {
	Sheet   string
	Start   int
	End     xlrecord.EndCondition
	Mapping xlrecord.Mapping
	Steps   []Step
}

type rawJob struct {
	Sheet      string                 `yaml:"sheet"`
	Start      int                    `yaml:"start"`
	End        *int                   `yaml:"end"`
	Until      string                 `yaml:"until"`
	UntilEmpty string                 `yaml:"untilEmpty"`
	Rows       yaml.Node              `yaml:"rows"`
	Query      []map[string]yaml.Node `yaml:"query"`
}

// LoadFile reads a job from a YAML file.
func LoadFile(path string) (*Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open job file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads a job from YAML.
func Load(r io.Reader) (*Job, error) {
	var raw rawJob
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}

	job := &Job{Sheet: raw.Sheet, Start: raw.Start}
	if job.Sheet == "" {
		return nil, fmt.Errorf("%w: sheet is required", ErrInvalidJob)
	}
	if job.Start == 0 {
		job.Start = 1
	}
	if job.Start < 1 {
		return nil, fmt.Errorf("%w: start must be 1 or more, got %d", ErrInvalidJob, job.Start)
	}

	end, err := endCondition(raw)
	if err != nil {
		return nil, err
	}
	job.End = end

	job.Mapping, err = parseMapping(&raw.Rows)
	if err != nil {
		return nil, err
	}

	for i, q := range raw.Query {
		step, err := parseStep(q)
		if err != nil {
			return nil, fmt.Errorf("%w: query step %d: %v", ErrInvalidJob, i+1, err)
		}
		job.Steps = append(job.Steps, step)
	}
	return job, nil
}

func endCondition(raw rawJob) (xlrecord.EndCondition, error) {
	var conds []xlrecord.EndCondition
	if raw.End != nil {
		conds = append(conds, xlrecord.EndRow(*raw.End))
	}
	if raw.Until != "" {
		if err := xlrecord.CheckExpression(raw.Until); err != nil {
			return nil, fmt.Errorf("%w: until: %v", ErrInvalidJob, err)
		}
		conds = append(conds, xlrecord.UntilExpr(raw.Until))
	}
	if raw.UntilEmpty != "" {
		if _, err := xlrecord.NameToCol(raw.UntilEmpty); err != nil {
			return nil, fmt.Errorf("%w: untilEmpty: %v", ErrInvalidJob, err)
		}
		conds = append(conds, xlrecord.UntilEmpty(raw.UntilEmpty))
	}
	if len(conds) != 1 {
		return nil, fmt.Errorf("%w: exactly one of end, until, untilEmpty is required", ErrInvalidJob)
	}
	return conds[0], nil
}

func parseMapping(node *yaml.Node) (xlrecord.Mapping, error) {
	switch node.Kind {
	case yaml.MappingNode:
		t, err := parseTemplate(node)
		if err != nil {
			return nil, err
		}
		return xlrecord.Single(t), nil
	case yaml.SequenceNode:
		var m xlrecord.Mapping
		for i, n := range node.Content {
			t, err := parseTemplate(n)
			if err != nil {
				return nil, fmt.Errorf("rows[%d]: %w", i, err)
			}
			m = append(m, t)
		}
		if len(m) == 0 {
			return nil, fmt.Errorf("%w: rows is empty", ErrInvalidJob)
		}
		return m, nil
	}
	return nil, fmt.Errorf("%w: rows must be a mapping or a list of mappings", ErrInvalidJob)
}

// fieldSpec is the object form of a field entry.
type fieldSpec struct {
	Col      string `yaml:"col"`
	Cell     string `yaml:"cell"`
	Expr     string `yaml:"expr"`
	Format   string `yaml:"format"`
	Rounding string `yaml:"rounding"`
}

func parseTemplate(node *yaml.Node) (xlrecord.RowTemplate, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: row template must be a mapping (line %d)", ErrInvalidJob, node.Line)
	}
	t := make(xlrecord.RowTemplate)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		if name == xlrecord.DebugKey {
			continue
		}
		rule, err := parseFieldRule(node.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %v", ErrInvalidJob, name, err)
		}
		t[name] = rule
	}
	return t, nil
}

func parseFieldRule(node *yaml.Node) (xlrecord.FieldRule, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return xlrecord.Col(node.Value), nil
	case yaml.SequenceNode:
		var parts []string
		if err := node.Decode(&parts); err != nil {
			return nil, err
		}
		if len(parts) < 1 || len(parts) > 3 {
			return nil, fmt.Errorf("expected [column, format, rounding], got %d items", len(parts))
		}
		if len(parts) == 1 {
			return xlrecord.Col(parts[0]), nil
		}
		return xlrecord.ColFormat(parts[0], parts[1], rounding(parts)), nil
	case yaml.MappingNode:
		var fs fieldSpec
		if err := node.Decode(&fs); err != nil {
			return nil, err
		}
		mode, _ := xlrecord.ParseRoundingMode(fs.Rounding)
		switch {
		case fs.Expr != "":
			return xlrecord.Expr(fs.Expr), nil
		case fs.Cell != "":
			return xlrecord.CellFormat(fs.Cell, fs.Format, mode), nil
		case fs.Col != "":
			return xlrecord.ColFormat(fs.Col, fs.Format, mode), nil
		}
		return nil, fmt.Errorf("one of col, cell, expr is required")
	}
	return nil, fmt.Errorf("unsupported field entry (line %d)", node.Line)
}

func rounding(parts []string) xlrecord.RoundingMode {
	if len(parts) < 3 {
		return xlrecord.DefaultRounding
	}
	mode, _ := xlrecord.ParseRoundingMode(parts[2])
	return mode
}

func parseStep(q map[string]yaml.Node) (Step, error) {
	if len(q) != 1 {
		return Step{}, fmt.Errorf("each step needs exactly one operation, got %d", len(q))
	}
	for name, node := range q {
		switch name {
		case "seek":
			var args []any
			if err := node.Decode(&args); err != nil {
				return Step{}, err
			}
			if len(args) != 3 {
				return Step{}, fmt.Errorf("seek needs [field, action, value]")
			}
			field, action := fmt.Sprint(args[0]), fmt.Sprint(args[1])
			value := args[2]
			return Step{Name: name, apply: func(r *xlrecord.Record) *xlrecord.Record {
				return r.Seek(field, action, value)
			}}, nil
		case "sort":
			var args []string
			if err := node.Decode(&args); err != nil {
				return Step{}, err
			}
			if len(args) != 2 {
				return Step{}, fmt.Errorf("sort needs [field, asc|desc]")
			}
			return Step{Name: name, apply: func(r *xlrecord.Record) *xlrecord.Record {
				return r.Sort(args[0], args[1])
			}}, nil
		case "orderBy":
			spec := node.Value
			return Step{Name: name, apply: func(r *xlrecord.Record) *xlrecord.Record {
				return r.OrderBy(spec)
			}}, nil
		case "select":
			cond := node.Value
			if err := xlrecord.CheckExpression(cond); err != nil {
				return Step{}, err
			}
			return Step{Name: name, apply: func(r *xlrecord.Record) *xlrecord.Record {
				return r.Select(cond)
			}}, nil
		case "map":
			spec, err := parseMapSpec(&node)
			if err != nil {
				return Step{}, err
			}
			return Step{Name: name, apply: func(r *xlrecord.Record) *xlrecord.Record {
				return r.Map(spec)
			}}, nil
		default:
			return Step{}, fmt.Errorf("unknown operation %q", name)
		}
	}
	return Step{}, nil
}

func parseMapSpec(node *yaml.Node) (xlrecord.MapSpec, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("map must be a mapping")
	}
	spec := make(xlrecord.MapSpec)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		switch val.Kind {
		case yaml.ScalarNode:
			spec[key] = xlrecord.From(val.Value)
		case yaml.SequenceNode:
			var parts []string
			if err := val.Decode(&parts); err != nil {
				return nil, err
			}
			if len(parts) < 2 || len(parts) > 3 {
				return nil, fmt.Errorf("map %q: expected [field, format, rounding]", key)
			}
			spec[key] = xlrecord.Fmt(parts[0], parts[1], rounding(parts))
		case yaml.MappingNode:
			var fs fieldSpec
			if err := val.Decode(&fs); err != nil {
				return nil, err
			}
			if fs.Expr == "" {
				return nil, fmt.Errorf("map %q: expr is required", key)
			}
			spec[key] = xlrecord.MapExpr(fs.Expr)
		default:
			return nil, fmt.Errorf("map %q: unsupported entry", key)
		}
	}
	return spec, nil
}

// Run extracts the job's records from acc and applies the query steps.
func (j *Job) Run(acc xlrecord.CellAccessor, opts ...xlrecord.Option) (*xlrecord.Record, error) {
	m := xlrecord.NewMapper(acc, opts...)
	items, err := m.ExtractRange(j.Sheet, j.Mapping, j.Start, j.End)
	if err != nil {
		return nil, err
	}
	rec := xlrecord.NewRecord(items, opts...)
	for _, s := range j.Steps {
		rec = s.apply(rec)
	}
	if err := rec.Err(); err != nil {
		return nil, err
	}
	return rec, nil
}
