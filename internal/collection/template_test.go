package collection

import (
	"reflect"
	"testing"

	"github.com/conorfennell/apkg/internal/domain"
	"github.com/conorfennell/apkg/internal/schema"
)

func standardModel(templates ...domain.Template) domain.Model {
	return domain.Model{
		Fields: []domain.Field{
			schema.NewField("Front", 0),
			schema.NewField("Back", 1),
			schema.NewField("Extra", 2),
		},
		Templates: templates,
		Type:      domain.ModelStandard,
	}
}

func clozeModel(qfmt string) domain.Model {
	return domain.Model{
		Fields: []domain.Field{
			schema.NewField("Text", 0),
			schema.NewField("Extra", 1),
		},
		Templates: []domain.Template{{Name: "Cloze", Qfmt: qfmt}},
		Type:      domain.ModelCloze,
	}
}

func TestCardOrdinalsStandard(t *testing.T) {
	testCases := []struct {
		name      string
		templates []domain.Template
		fields    []string
		want      []int
	}{
		{
			name:      "one template with filled fields",
			templates: []domain.Template{{Qfmt: "{{Front}}"}},
			fields:    []string{"f", "b", ""},
			want:      []int{0},
		},
		{
			name: "template referencing an empty field is suppressed",
			templates: []domain.Template{
				{Qfmt: "{{Front}}"},
				{Qfmt: "{{Extra}} and {{Front}}"},
			},
			fields: []string{"f", "b", ""},
			want:   []int{0},
		},
		{
			name:      "empty front suppresses the card silently",
			templates: []domain.Template{{Qfmt: "{{Front}}"}},
			fields:    []string{"", "b", ""},
			want:      nil,
		},
		{
			name:      "type and hint modifiers resolve to the field",
			templates: []domain.Template{{Qfmt: "{{type:Front}} {{hint:Back}}"}},
			fields:    []string{"f", "b", ""},
			want:      []int{0},
		},
		{
			name:      "conditional sections impose requirements",
			templates: []domain.Template{{Qfmt: "{{#Extra}}{{Front}}{{/Extra}}"}},
			fields:    []string{"f", "b", ""},
			want:      nil,
		},
		{
			name:      "placeholders naming no field impose nothing",
			templates: []domain.Template{{Qfmt: "{{FrontSide}} static text"}},
			fields:    []string{"", "", ""},
			want:      []int{0},
		},
		{
			name: "all templates satisfied",
			templates: []domain.Template{
				{Qfmt: "{{Front}}"},
				{Qfmt: "{{Back}}"},
			},
			fields: []string{"f", "b", ""},
			want:   []int{0, 1},
		},
		{
			name:      "missing field position counts as empty",
			templates: []domain.Template{{Qfmt: "{{Extra}}"}},
			fields:    []string{"f"},
			want:      nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CardOrdinals(standardModel(tc.templates...), tc.fields)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Expected ordinals %v, but got %v", tc.want, got)
			}
		})
	}
}

func TestCardOrdinalsCloze(t *testing.T) {
	testCases := []struct {
		name   string
		qfmt   string
		fields []string
		want   []int
	}{
		{
			name:   "two markers yield two ordinals",
			qfmt:   "{{cloze:Text}}",
			fields: []string{"{{c1::A}} {{c2::B}}", ""},
			want:   []int{0, 1},
		},
		{
			name:   "no markers default to ordinal zero",
			qfmt:   "{{cloze:Text}}",
			fields: []string{"plain text", ""},
			want:   []int{0},
		},
		{
			name:   "repeated marker numbers collapse",
			qfmt:   "{{cloze:Text}}",
			fields: []string{"{{c1::A}} {{c1::B}} {{c3::C}}", ""},
			want:   []int{0, 2},
		},
		{
			name:   "legacy percent syntax is recognized",
			qfmt:   "<%cloze:Text%>",
			fields: []string{"{{c1::A}} {{c2::B}}", ""},
			want:   []int{0, 1},
		},
		{
			name:   "markers come from the referenced cloze field only",
			qfmt:   "{{cloze:Extra}}",
			fields: []string{"{{c1::A}}", "{{c2::B}}"},
			want:   []int{1},
		},
		{
			name:   "marker with hint text",
			qfmt:   "{{cloze:Text}}",
			fields: []string{"{{c2::answer::hint}}", ""},
			want:   []int{1},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := CardOrdinals(clozeModel(tc.qfmt), tc.fields)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Expected ordinals %v, but got %v", tc.want, got)
			}
		})
	}
}

func TestComputeReq(t *testing.T) {
	t.Run("standard model requires referenced ordinals", func(t *testing.T) {
		model := standardModel(
			domain.Template{Qfmt: "{{Front}}"},
			domain.Template{Qfmt: "{{Back}} {{Extra}}"},
		)
		got := ComputeReq(model)
		want := []domain.ReqRule{
			{TemplateOrd: 0, Kind: "all", FieldOrds: []int{0}},
			{TemplateOrd: 1, Kind: "all", FieldOrds: []int{1, 2}},
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Expected req %v, but got %v", want, got)
		}
	})

	t.Run("cloze model requires any cloze field", func(t *testing.T) {
		got := ComputeReq(clozeModel("{{cloze:Text}}"))
		want := []domain.ReqRule{{TemplateOrd: 0, Kind: "any", FieldOrds: []int{0}}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Expected req %v, but got %v", want, got)
		}
	})
}

func TestExtractDefault(t *testing.T) {
	decks := map[string]domain.Deck{
		"1":   {ID: 1, Name: "Default"},
		"200": {ID: 200, Name: "Other"},
	}
	remaining, deck, ok := extractDefault(decks)
	if !ok {
		t.Fatal("Expected the default entry to be extracted")
	}
	if deck.Name != "Default" {
		t.Errorf("Expected the default deck, got %q", deck.Name)
	}
	if len(remaining) != 1 {
		t.Errorf("Expected 1 remaining entry, got %d", len(remaining))
	}
	if len(decks) != 2 {
		t.Error("Expected the input map to be left unmodified")
	}

	if _, _, ok := extractDefault(map[string]domain.Deck{"7": {}}); ok {
		t.Error("Expected extraction to fail without a default entry")
	}
}
