package registry

import (
	"github.com/docgov/docgov/internal/report"
)

// CheckReferences enforces doc_id uniqueness and depends_on integrity.
// docs must be in scan order; the first occurrence of an id owns it.
// Unknown references are reported at refLevel, which is raised to
// warning when lower.
func CheckReferences(docs []Document, refLevel report.Level) []report.Finding {
	if refLevel < report.LevelWarning {
		refLevel = report.LevelWarning
	}

	var findings []report.Finding
	owners := make(map[string]string, len(docs))

	for _, d := range docs {
		id, ok := d.DocID()
		if !ok {
			continue
		}
		if first, dup := owners[id]; dup {
			findings = append(findings, report.Errorf(d.RelPath, "Duplicate doc_id '%s' (also in %s).", id, first))
			continue
		}
		owners[id] = d.RelPath
	}

	for _, d := range docs {
		if d.Frontmatter == nil {
			continue
		}
		deps, ok := d.Frontmatter["depends_on"].([]any)
		if !ok {
			continue
		}
		for _, dep := range deps {
			ref, isStr := dep.(string)
			if !isStr {
				findings = append(findings, report.Errorf(d.RelPath, "depends_on contains non-string value: %v", dep))
				continue
			}
			if _, known := owners[ref]; !known {
				findings = append(findings, report.Finding{
					Level:   refLevel,
					Subject: d.RelPath,
					Message: "depends_on references missing doc_id: " + ref,
				})
			}
		}
	}

	return findings
}
