package qdrant

import "unicode/utf8"

// SelectedTextFilterRunes bounds how much of a selection is sent as the
// full-text match so long selections never trigger pathological scans.
const SelectedTextFilterRunes = 100

type translatedFilter struct {
	Must    []any
	Should  []any
	MustNot []any
}

func (f translatedFilter) empty() bool {
	return len(f.Must) == 0 && len(f.Should) == 0 && len(f.MustNot) == 0
}

func (f translatedFilter) asMap() map[string]any {
	out := map[string]any{}
	if len(f.Must) > 0 {
		out["must"] = f.Must
	}
	if len(f.Should) > 0 {
		out["should"] = f.Should
	}
	if len(f.MustNot) > 0 {
		out["must_not"] = f.MustNot
	}
	return out
}

func qdrantMatchCondition(key string, value any) map[string]any {
	return map[string]any{
		"key":   key,
		"match": map[string]any{"value": value},
	}
}

func qdrantTextCondition(key, text string) map[string]any {
	return map[string]any{
		"key":   key,
		"match": map[string]any{"text": text},
	}
}

// selectionFilter narrows a search to chunks whose content contains the
// leading runes of the selection. Blank selections yield no filter.
func selectionFilter(selectedText string) translatedFilter {
	prefix := selectionPrefix(selectedText)
	if prefix == "" {
		return translatedFilter{}
	}
	return translatedFilter{Must: []any{qdrantTextCondition(payloadContentKey, prefix)}}
}

func selectionPrefix(selectedText string) string {
	if isBlank(selectedText) {
		return ""
	}
	if utf8.RuneCountInString(selectedText) <= SelectedTextFilterRunes {
		return selectedText
	}
	n := 0
	for i := range selectedText {
		if n == SelectedTextFilterRunes {
			return selectedText[:i]
		}
		n++
	}
	return selectedText
}

// documentFilter matches every point of a document except the keep ids.
func documentFilter(documentID string, keep []string) translatedFilter {
	f := translatedFilter{Must: []any{qdrantMatchCondition(payloadDocumentIDKey, documentID)}}
	if len(keep) > 0 {
		f.MustNot = []any{map[string]any{"has_id": keep}}
	}
	return f
}
