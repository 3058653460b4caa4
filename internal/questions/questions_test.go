package questions

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/starford/formfill/internal/apperr"
	"github.com/starford/formfill/internal/models"
)

func str(s string) *string { return &s }

func ids(qs []models.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.OutlineID
	}
	return out
}

const nested = `{
  "questions": [
    {"id": "1", "question": "What is your name?", "answer": "John Smith"},
    {"id": 3, "question": "Contact info:", "questions": [
      {"id": "a", "question": "Email?", "answer": "jane@acme.com"},
      {"id": "b", "question": "Phone?", "answer": 5551234}
    ]},
    {"id": "4", "answer": null}
  ]
}`

func TestParse_Nested(t *testing.T) {
	qs, err := Parse([]byte(nested), "answers.json")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := ids(qs), []string{"1", "3", "3a", "3b", "4"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	if qs[0].AnswerText() != "John Smith" || qs[0].Expected() != "What is your name?" {
		t.Errorf("q1 = %+v", qs[0])
	}
	if qs[1].HasAnswer() {
		t.Error("parent without answer reported an answer")
	}
	if qs[3].AnswerText() != "5551234" {
		t.Errorf("numeric answer = %q", qs[3].AnswerText())
	}
	if qs[4].Answer != nil {
		t.Error("null answer should be absent")
	}
}

func TestParse_LegacyAndBareArray(t *testing.T) {
	legacy := `{"answers": [{"outline_id": "2", "validation_text": "Age", "answer": "42"}]}`
	bare := `[{"outline_id": "2", "validation_text": "Age", "answer": "42"}]`
	for name, src := range map[string]string{"legacy": legacy, "bare": bare} {
		qs, err := Parse([]byte(src), "in.json")
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		want := []models.Question{{OutlineID: "2", ValidationText: str("Age"), Answer: str("42")}}
		if !reflect.DeepEqual(qs, want) {
			t.Errorf("%s: got %+v", name, qs)
		}
	}
}

func TestParse_YAML(t *testing.T) {
	src := `
questions:
  - id: 1
    question: Name?
    answer: John
  - id: 2
    questions:
      - id: a
        answer: yes please
`
	qs, err := Parse([]byte(src), "answers.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := ids(qs), []string{"1", "2", "2a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
	if qs[2].AnswerText() != "yes please" {
		t.Errorf("answer = %q", qs[2].AnswerText())
	}
}

func TestParse_Unrecognized(t *testing.T) {
	for _, src := range []string{`{"foo": []}`, `"text"`, `not json`, `{"questions": "x"}`} {
		if _, err := Parse([]byte(src), "x.json"); !errors.Is(err, apperr.ErrUnsupportedFormat) {
			t.Errorf("Parse(%s) err = %v, want ErrUnsupportedFormat", src, err)
		}
	}
}

func TestParse_MissingOutlineIDStillLoads(t *testing.T) {
	qs, err := Parse([]byte(`[{"answer": "orphan"}]`), "x.json")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(qs) != 1 || qs[0].Validate() == nil {
		t.Errorf("malformed entry should load and fail validation: %+v", qs)
	}
}

func TestFlattenNestRoundTrip(t *testing.T) {
	var spec Spec
	if err := json.Unmarshal([]byte(nested), &spec); err != nil {
		t.Fatal(err)
	}
	back := Nest(Flatten(spec.Questions))
	if !reflect.DeepEqual(back, spec.Questions) {
		a, _ := json.Marshal(back)
		b, _ := json.Marshal(spec.Questions)
		t.Errorf("round trip mismatch:\n got %s\nwant %s", a, b)
	}
}

func TestNest_NumericSiblingsStayTopLevel(t *testing.T) {
	got := Nest([]models.Question{{OutlineID: "1"}, {OutlineID: "10"}, {OutlineID: "10a"}, {OutlineID: "11"}})
	if len(got) != 3 || got[1].ID != "10" || len(got[1].Questions) != 1 || got[1].Questions[0].ID != "a" {
		b, _ := json.Marshal(got)
		t.Errorf("Nest = %s", b)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.json")
	if err := os.WriteFile(path, []byte(nested), 0o644); err != nil {
		t.Fatal(err)
	}
	qs, err := Load(path)
	if err != nil || len(qs) != 5 {
		t.Fatalf("Load = %d, %v", len(qs), err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestConvertCSV(t *testing.T) {
	src := "\ufeff#,##,Question,Answer,Notes\n" +
		"1,,What is your name?,John Smith,x\n" +
		",,stray row,ignored,\n" +
		"3,a,Email?,jane@acme.com,\n" +
		"3,,Contact info:,,\n" +
		"3,b,Phone?,,\n" +
		"12,,Age?, 42 ,\n"
	spec, err := ConvertCSV(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ConvertCSV: %v", err)
	}
	got, _ := json.Marshal(spec)
	want := `{"questions":[` +
		`{"id":"1","question":"What is your name?","answer":"John Smith"},` +
		`{"id":"3","question":"Contact info:","questions":[{"id":"a","question":"Email?","answer":"jane@acme.com"},{"id":"b","question":"Phone?"}]},` +
		`{"id":"12","question":"Age?","answer":"42"}]}`
	if string(got) != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestConvertCSV_Aliases(t *testing.T) {
	spec, err := ConvertCSV(strings.NewReader("num,sub,q,response\n2,a,Why?,Because\n"))
	if err != nil {
		t.Fatalf("ConvertCSV: %v", err)
	}
	if len(spec.Questions) != 1 || len(spec.Questions[0].Questions) != 1 {
		t.Fatalf("spec = %+v", spec)
	}
}

func TestConvertCSV_MissingColumns(t *testing.T) {
	if _, err := ConvertCSV(strings.NewReader("Question,Answer\nx,y\n")); err == nil || !strings.Contains(err.Error(), "'#' column") {
		t.Errorf("missing # err = %v", err)
	}
	if _, err := ConvertCSV(strings.NewReader("#,Question\n1,x\n")); err == nil || !strings.Contains(err.Error(), "'Answer' column") {
		t.Errorf("missing Answer err = %v", err)
	}
	if _, err := ConvertCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty csv")
	}
}
