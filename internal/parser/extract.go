package parser

import (
	"strings"

	"github.com/AntTheLimey/layercheck/internal/scanner"
)

// segment is the text between one CREATE TABLE header and the next one (or the
// end of the input). headerEnd is the offset just past the header keywords.
type segment struct {
	text      string
	offset    int
	headerEnd int
}

// strategy locates the end of the statement that starts a segment. It returns
// the end offset within seg.text, or -1 when it does not apply.
type strategy struct {
	name string
	end  func(seg segment) int
}

// strategies are ordered from most to least structurally specific. At one
// start offset the first strategy producing a valid candidate wins.
var strategies = []strategy{
	{name: "tblproperties", end: endAfterTblProperties},
	{name: "semicolon", end: endAtSemicolon},
	{name: "balanced", end: endAfterBalancedBody},
	{name: "greedy", end: func(seg segment) int { return len(seg.text) }},
}

// Candidate is an accepted statement with the strategy that delimited it and
// its byte offset in the comment-stripped input.
type Candidate struct {
	Text     string
	Strategy string
	Offset   int
}

// ExtractStatements returns the CREATE TABLE statements found in text, in
// order of appearance. Comments are removed first. A candidate is kept only if
// it contains "(" and yields a table name; duplicates by exact text are
// dropped. An empty result is a normal "no statement found" outcome.
func ExtractStatements(text string) []string {
	cands := FindStatements(text)
	if len(cands) == 0 {
		return nil
	}
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Text
	}
	return out
}

// FindStatements is ExtractStatements with strategy and offset details.
func FindStatements(text string) []Candidate {
	clean := scanner.StripComments(text)

	var out []Candidate
	seen := make(map[string]bool)
	for _, seg := range segments(clean) {
		c, ok := extractOne(seg)
		if !ok || seen[c.Text] {
			continue
		}
		seen[c.Text] = true
		out = append(out, c)
	}
	return out
}

// extractOne applies the strategy table to one segment.
func extractOne(seg segment) (Candidate, bool) {
	for _, s := range strategies {
		end := s.end(seg)
		if end < 0 {
			continue
		}
		stmt := strings.TrimSpace(seg.text[:end])
		if s.name != "greedy" && scanner.HasUnbalancedParens(stmt) {
			continue
		}
		if acceptStatement(stmt) {
			return Candidate{Text: stmt, Strategy: s.name, Offset: seg.offset}, true
		}
	}
	return Candidate{}, false
}

// acceptStatement is the validation applied to every candidate.
func acceptStatement(stmt string) bool {
	if !strings.Contains(stmt, "(") {
		return false
	}
	_, ok := ExtractTableName(stmt)
	return ok
}

// segments cuts text at every CREATE TABLE header that lies outside quotes.
// Parenthesis depth is ignored so one unclosed body cannot swallow the
// statements after it.
func segments(text string) []segment {
	locs := reCreateTable.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	quoted := make([]bool, len(text))
	scanner.Walk(text, func(i int, _ byte, st scanner.State) bool {
		quoted[i] = st.Quoted()
		return true
	})

	var starts [][]int
	for _, loc := range locs {
		if !quoted[loc[0]] {
			starts = append(starts, loc)
		}
	}

	segs := make([]segment, 0, len(starts))
	for i, loc := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		segs = append(segs, segment{
			text:      text[loc[0]:end],
			offset:    loc[0],
			headerEnd: loc[1] - loc[0],
		})
	}
	return segs
}

// topLevelMask reports, for every byte offset, whether it lies outside quotes
// and parentheses.
func topLevelMask(text string) []bool {
	mask := make([]bool, len(text))
	scanner.Walk(text, func(i int, _ byte, st scanner.State) bool {
		mask[i] = st.TopLevel()
		return true
	})
	return mask
}

// endAfterTblProperties ends the statement after a top-level TBLPROPERTIES
// clause and an optional semicolon.
func endAfterTblProperties(seg segment) int {
	top := topLevelMask(seg.text)
	for _, loc := range reTblProperties.FindAllStringIndex(seg.text, -1) {
		if !top[loc[0]] {
			continue
		}
		closeAt := scanner.MatchingParen(seg.text, loc[1]-1)
		if closeAt < 0 {
			return -1
		}
		return withSemicolon(seg.text, closeAt+1)
	}
	return -1
}

// endAtSemicolon ends the statement at its first top-level semicolon. It
// does not apply when another statement starts between the column body and
// that semicolon.
func endAtSemicolon(seg segment) int {
	at := scanner.IndexTopLevel(seg.text, ';')
	if at < 0 {
		return -1
	}
	if body := bodyEnd(seg); body >= 0 && body <= at && reStatementStart.MatchString(seg.text[body:at]) {
		return -1
	}
	return at + 1
}

// endAfterBalancedBody ends the statement after the column body's closing
// parenthesis, any recognised trailing clauses and an optional semicolon.
func endAfterBalancedBody(seg segment) int {
	end := bodyEnd(seg)
	if end < 0 {
		return -1
	}
	return withSemicolon(seg.text, end)
}

// bodyEnd returns the offset just past the column body and its recognised
// trailing clauses, or -1 when the body does not balance.
func bodyEnd(seg segment) int {
	open := bodyOpenParen(seg.text, seg.headerEnd)
	if open < 0 {
		return -1
	}
	end := scanner.MatchingParen(seg.text, open)
	if end < 0 {
		return -1
	}
	end++

	for {
		loc := reTrailingClause.FindStringIndex(seg.text[end:])
		if loc == nil {
			break
		}
		next := end + loc[1]
		if strings.HasSuffix(seg.text[:next], "(") {
			closeAt := scanner.MatchingParen(seg.text, next-1)
			if closeAt < 0 {
				break
			}
			next = closeAt + 1
		}
		end = next
	}
	return end
}

// withSemicolon extends end over a directly following semicolon.
func withSemicolon(text string, end int) int {
	if loc := reTrailingSemi.FindStringIndex(text[end:]); loc != nil {
		return end + loc[1]
	}
	return end
}

// bodyOpenParen returns the first top-level "(" at or after from, or -1.
func bodyOpenParen(text string, from int) int {
	if from > len(text) {
		return -1
	}
	at := scanner.IndexTopLevel(text[from:], '(')
	if at < 0 {
		return -1
	}
	return from + at
}
