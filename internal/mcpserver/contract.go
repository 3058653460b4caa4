package mcpserver

// InputFormatContract describes the question files accepted by
// analyze_form and fill_form.
const InputFormatContract = `# Form Filler Input Format

Answers are matched to the form by **outline ID**, the hierarchical number
of each question: top-level questions are numbered "1", "2", ...; their
sub-questions append a letter ("3a", "3b"); a third level appends a roman
numeral ("3ai", "3aii"). Use get_structure to see the IDs of a document.

Three JSON shapes are accepted (YAML with the same structure also works):

## 1. Nested questions (preferred)

` + "```" + `json
{
  "questions": [
    {"id": 1, "question": "What is your name?", "answer": "Ada Lovelace"},
    {"id": 3, "question": "Contact info:", "questions": [
      {"id": "a", "question": "Email?", "answer": "ada@example.com"},
      {"id": "b", "question": "Phone?"}
    ]}
  ]
}
` + "```" + `

Child IDs are suffixes: {"id": "a"} under {"id": 3} is outline ID "3a".

## 2. Flat answers

` + "```" + `json
{"answers": [{"outline_id": "3a", "validation_text": "Email", "answer": "ada@example.com"}]}
` + "```" + `

## 3. Bare array

The "answers" list of shape 2 on its own.

## Rules

1. **` + "`" + `question` + "`" + ` / ` + "`" + `validation_text` + "`" + ` is optional.** When present it must
   appear, case-insensitively, inside the document's question text; a
   mismatch is reported as not_found and nothing is written.
2. **Entries without an answer (or with a blank one) are skipped.** The
   current answer is reported back in existing_answer.
3. **Answers are written as an indented paragraph below the question.** An
   existing answer is replaced; an identical one is left alone (no_change).
4. **Document questions the input does not mention** are listed as
   not_in_input with has_answer and existing_answer.
5. **Use dry_run first.** It reports would_insert / would_replace without
   touching the document.
`
