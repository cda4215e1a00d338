package collection

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/conorfennell/apkg/internal/domain"
)

// Template placeholder forms recognized during expansion:
// {{Field}}, {{type:Field}}, {{hint:Field}}, {{#Field}}...{{/Field}},
// {{cloze:Field}} and the legacy <%cloze:Field%> syntax, and the
// {{cN::...}} deletion markers inside field values.
var (
	placeholderRe = regexp.MustCompile(`\{\{([#^/]?)([^{}]+?)\}\}`)
	legacyClozeRe = regexp.MustCompile(`<%cloze:([^%]+)%>`)
	clozeMarkRe   = regexp.MustCompile(`\{\{c(\d+)::`)
)

// CardOrdinals returns the sorted, distinct card ordinals a note's field
// values generate under the model's templates.
//
// Standard models emit one candidate per template, suppressed when any field
// the template references is empty. Cloze models examine only the first
// template; the {{cN::...}} markers in its cloze fields supply the ordinals,
// defaulting to the single ordinal 0 when no marker exists.
func CardOrdinals(model domain.Model, fields []string) []int {
	if model.Cloze() {
		return clozeOrdinals(model, fields)
	}
	var ords []int
	for i, tmpl := range model.Templates {
		if templateSatisfied(model, tmpl.Qfmt, fields) {
			ords = append(ords, i)
		}
	}
	return ords
}

// templateSatisfied reports whether every field the question template
// references carries a non-empty value. Placeholders that name no model field
// (such as {{FrontSide}}) impose no requirement.
func templateSatisfied(model domain.Model, qfmt string, fields []string) bool {
	for _, name := range referencedFields(qfmt) {
		ord, ok := model.FieldOrd(name)
		if !ok {
			continue
		}
		if ord >= len(fields) || strings.TrimSpace(fields[ord]) == "" {
			return false
		}
	}
	return true
}

// referencedFields extracts the field names a question template mentions.
// Modifier prefixes (type:, hint:, cloze:) are stripped; the name is the
// final colon-separated segment.
func referencedFields(qfmt string) []string {
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(qfmt, -1) {
		inner := m[2]
		if strings.Contains(inner, "::") {
			continue
		}
		segs := strings.Split(inner, ":")
		name := strings.TrimSpace(segs[len(segs)-1])
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// ComputeReq derives the model's "req" array from its templates: which field
// ordinals each template needs before a card is generated. Modern clients
// ignore it but older ones still read it.
func ComputeReq(model domain.Model) []domain.ReqRule {
	if model.Cloze() {
		var ords []int
		if len(model.Templates) > 0 {
			for _, name := range clozeFieldNames(model.Templates[0].Qfmt) {
				if ord, ok := model.FieldOrd(name); ok {
					ords = append(ords, ord)
				}
			}
		}
		sort.Ints(ords)
		return []domain.ReqRule{{TemplateOrd: 0, Kind: "any", FieldOrds: dedupe(ords)}}
	}
	rules := make([]domain.ReqRule, 0, len(model.Templates))
	for i, tmpl := range model.Templates {
		var ords []int
		for _, name := range referencedFields(tmpl.Qfmt) {
			if ord, ok := model.FieldOrd(name); ok {
				ords = append(ords, ord)
			}
		}
		sort.Ints(ords)
		rules = append(rules, domain.ReqRule{TemplateOrd: i, Kind: "all", FieldOrds: dedupe(ords)})
	}
	return rules
}

func dedupe(sorted []int) []int {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}

func clozeOrdinals(model domain.Model, fields []string) []int {
	if len(model.Templates) == 0 {
		return nil
	}
	qfmt := model.Templates[0].Qfmt

	seen := make(map[int]struct{})
	for _, name := range clozeFieldNames(qfmt) {
		ord, ok := model.FieldOrd(name)
		if !ok || ord >= len(fields) {
			continue
		}
		for _, m := range clozeMarkRe.FindAllStringSubmatch(fields[ord], -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil || n < 1 {
				continue
			}
			// c1 is card ordinal 0: markers are 1-based, ordinals 0-based.
			seen[n-1] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return []int{0}
	}
	ords := make([]int, 0, len(seen))
	for ord := range seen {
		ords = append(ords, ord)
	}
	sort.Ints(ords)
	return ords
}

// clozeFieldNames extracts the fields referenced via cloze markers in the
// first template, in either placeholder syntax.
func clozeFieldNames(qfmt string) []string {
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(qfmt, -1) {
		inner := m[2]
		if !strings.HasPrefix(inner, "cloze:") {
			continue
		}
		segs := strings.Split(inner, ":")
		name := strings.TrimSpace(segs[len(segs)-1])
		if name != "" {
			names = append(names, name)
		}
	}
	for _, m := range legacyClozeRe.FindAllStringSubmatch(qfmt, -1) {
		name := strings.TrimSpace(m[1])
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
