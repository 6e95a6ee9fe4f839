// Package glossary holds the curated bilingual term table used to ground
// translations. The table is keyed by pivot-language terms (the operator-side
// language, Korean by default) and maps each term to its equivalents in the
// supported customer languages.
//
// The table is loaded once at startup and is read-only afterwards, so it is
// safe to share between providers without locking. Insertion order of terms
// is preserved: prompt context is built from the first entries in order, and
// truncation is therefore deterministic.
package glossary

import "strings"

// contextTermLimit bounds how many glossary entries are embedded into a
// provider prompt. Entries beyond the limit are dropped in insertion order.
const contextTermLimit = 20

// Entry is one pivot-language term with its translations keyed by language
// code.
type Entry struct {
	Term         string
	Translations map[string]string
}

// Table is an ordered pivot-language term table.
type Table struct {
	pivot   string
	entries []Entry
}

// New creates an empty table for the given pivot language code.
func New(pivot string) *Table {
	return &Table{pivot: pivot}
}

// Pivot returns the pivot language code of the table.
func (t *Table) Pivot() string { return t.pivot }

// Len returns the number of entries in the table.
func (t *Table) Len() int { return len(t.entries) }

// Add appends a term with its translations. Later additions of the same term
// shadow nothing; lookups return the first match.
func (t *Table) Add(term string, translations map[string]string) *Table {
	t.entries = append(t.entries, Entry{Term: term, Translations: translations})
	return t
}

// Lookup resolves an exact-match translation between the pivot language and
// another language, in either direction. The input is trimmed before
// comparison. It returns ("", false) when no entry matches.
func (t *Table) Lookup(text, sourceLang, targetLang string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	switch {
	case sourceLang == t.pivot:
		for _, e := range t.entries {
			if e.Term == text {
				if out, ok := e.Translations[targetLang]; ok {
					return out, true
				}
			}
		}
	case targetLang == t.pivot:
		for _, e := range t.entries {
			if src, ok := e.Translations[sourceLang]; ok && src == text {
				return e.Term, true
			}
		}
	}
	return "", false
}

// Context renders the term list as prompt context lines of the form
// "- source_term → target_term" for the given direction. Only directions that
// touch the pivot language produce context; anything else returns "".
// Output is capped at the first contextTermLimit entries in insertion order.
func (t *Table) Context(sourceLang, targetLang string) string {
	var lines []string

	switch {
	case sourceLang == t.pivot:
		for _, e := range t.limited() {
			if out, ok := e.Translations[targetLang]; ok {
				lines = append(lines, "- "+e.Term+" → "+out)
			}
		}
	case targetLang == t.pivot:
		for _, e := range t.limited() {
			if src, ok := e.Translations[sourceLang]; ok {
				lines = append(lines, "- "+src+" → "+e.Term)
			}
		}
	}
	return strings.Join(lines, "\n")
}

// limited returns the prefix of entries eligible for prompt context.
func (t *Table) limited() []Entry {
	if len(t.entries) > contextTermLimit {
		return t.entries[:contextTermLimit]
	}
	return t.entries
}

// DefaultMedical returns the built-in Korean-pivot medical term table shared
// by all providers.
func DefaultMedical() *Table {
	t := New("ko")
	t.Add("예약", map[string]string{"en": "appointment", "vi": "lịch hẹn", "ja": "予約", "zh": "预约", "th": "การนัดหมาย"})
	t.Add("진료", map[string]string{"en": "consultation", "vi": "khám bệnh", "ja": "診察", "zh": "就诊", "th": "การตรวจรักษา"})
	t.Add("처방전", map[string]string{"en": "prescription", "vi": "đơn thuốc", "ja": "処方箋", "zh": "处方", "th": "ใบสั่งยา"})
	t.Add("증상", map[string]string{"en": "symptom", "vi": "triệu chứng", "ja": "症状", "zh": "症状", "th": "อาการ"})
	t.Add("통증", map[string]string{"en": "pain", "vi": "đau", "ja": "痛み", "zh": "疼痛", "th": "ความเจ็บปวด"})
	t.Add("검사", map[string]string{"en": "examination", "vi": "kiểm tra", "ja": "検査", "zh": "检查", "th": "การตรวจสอบ"})
	t.Add("수술", map[string]string{"en": "surgery", "vi": "phẫu thuật", "ja": "手術", "zh": "手术", "th": "การผ่าตัด"})
	t.Add("입원", map[string]string{"en": "hospitalization", "vi": "nhập viện", "ja": "入院", "zh": "住院", "th": "การเข้าพักรักษา"})
	return t
}
