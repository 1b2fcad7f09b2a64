package main

import (
	"fmt"
	"html"
	"net/http"
	"slices"
	"strings"

	"github.com/starfederation/datastar-go/datastar"
)

type activeSearchSignals struct {
	Search string `json:"search"`
}

// levenshtein calculates the edit distance between two strings.
func levenshtein(s1, s2 string) int {
	r1, r2 := []rune(s1), []rune(s2)
	n, m := len(r1), len(r2)
	if n > m {
		r1, r2 = r2, r1
		n, m = m, n
	}

	currentRow := make([]int, n+1)
	for i := 0; i <= n; i++ {
		currentRow[i] = i
	}

	for i := 1; i <= m; i++ {
		previousRow := currentRow
		currentRow = make([]int, n+1)
		currentRow[0] = i
		for j := 1; j <= n; j++ {
			add, del, change := previousRow[j]+1, currentRow[j-1]+1, previousRow[j-1]
			if r1[j-1] != r2[i-1] {
				change++
			}
			currentRow[j] = min(add, del, change)
		}
	}
	return currentRow[n]
}

type scoredResult struct {
	Label  string
	Detail string
	Score  int
}

// scoreCandidate returns 0 for a substring hit, the edit distance when
// it is under the fuzzy threshold, and 1000 for no match.
func scoreCandidate(query string, fields ...string) int {
	if query == "" {
		return 0
	}
	best := 1000
	for _, f := range fields {
		f = strings.ToLower(f)
		if strings.Contains(f, query) {
			return 0
		}
		if d := levenshtein(query, f); d < 5 && d < best {
			best = d
		}
	}
	return best
}

// handleActiveSearch streams fuzzy search results for patients, CPT
// codes or resources as server-sent element patches.
func (s *server) handleActiveSearch(w http.ResponseWriter, r *http.Request) {
	signals := &activeSearchSignals{}
	if err := datastar.ReadSignals(r, signals); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	query := strings.ToLower(strings.TrimSpace(signals.Search))
	searchType := r.URL.Query().Get("type")

	var results []scoredResult
	switch searchType {
	case "patient":
		for _, p := range s.store.ListPatients("", 0, 0) {
			full := p.FirstName + " " + p.LastName
			if score := scoreCandidate(query, p.FirstName, p.LastName, full); score < 1000 {
				results = append(results, scoredResult{Label: full, Detail: p.InsuranceProvider, Score: score})
			}
		}
	case "cpt":
		for _, c := range s.store.ListCPTCodes("") {
			if score := scoreCandidate(query, c.Code, c.Description); score < 1000 {
				results = append(results, scoredResult{Label: c.Description, Detail: c.Code, Score: score})
			}
		}
	case "resource":
		for _, res := range s.store.ListResources("", nil) {
			if score := scoreCandidate(query, res.Name, res.Type); score < 1000 {
				results = append(results, scoredResult{Label: res.Name, Detail: res.Type, Score: score})
			}
		}
	default:
		respondError(w, http.StatusBadRequest, "invalid search type")
		return
	}

	slices.SortStableFunc(results, func(a, b scoredResult) int {
		return a.Score - b.Score
	})
	if len(results) > 15 {
		results = results[:15]
	}

	targetID := r.URL.Query().Get("target")
	if targetID == "" {
		targetID = "search-results"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<div id="%s" class="list">`, html.EscapeString(targetID)))
	for _, res := range results {
		sb.WriteString(fmt.Sprintf(`
			<div class="row">
				<span>%s</span>
				<label>%s</label>
			</div>`, html.EscapeString(res.Label), html.EscapeString(res.Detail)))
	}
	if len(results) == 0 {
		sb.WriteString(`<div class="padding">No results found</div>`)
	}
	sb.WriteString("</div>")

	sse := datastar.NewSSE(w, r)
	sse.PatchElements(sb.String())
}
