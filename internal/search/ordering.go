package search

import (
	"strings"

	"github.com/hyperjump/thoreau/internal/models"
	"github.com/hyperjump/thoreau/pkg/utils"
)

// DefaultTitleTierLimit is the term count from which a multi-term query is
// ranked as a sentence only, without the all/any-terms title tiers.
const DefaultTitleTierLimit = 10

// Columns names the document columns an order expression refers to.
type Columns struct {
	Title     string
	Content   string
	MenuOrder string
}

// DefaultColumns matches the documents table of the SQLite store.
var DefaultColumns = Columns{Title: "title", Content: "content", MenuOrder: "menu_order"}

// OrderClause ranks results for q. Multi-term queries are ranked in tiers:
// phrase in title, all terms in title, any term in title, phrase in content,
// everything else. Single-term queries rank title matches first. Menu order
// breaks ties in both cases.
func OrderClause(q *models.SearchQuery, cols Columns, titleTierLimit int) models.OrderExpr {
	if titleTierLimit <= 0 {
		titleTierLimit = DefaultTitleTierLimit
	}
	titleLike := cols.Title + ` LIKE ? ESCAPE '\'`
	contentLike := cols.Content + ` LIKE ? ESCAPE '\'`

	var expr models.OrderExpr
	var b strings.Builder
	if q.TermCount > 1 {
		phrase := utils.LikeContains(q.Phrase)
		n := len(q.Terms)

		b.WriteString("(CASE WHEN " + titleLike + " THEN 1 ")
		expr.Args = append(expr.Args, phrase)

		if n < titleTierLimit {
			conds := make([]string, n)
			for i := range conds {
				conds[i] = titleLike
			}
			b.WriteString("WHEN " + strings.Join(conds, " AND ") + " THEN 2 ")
			for _, t := range q.Terms {
				expr.Args = append(expr.Args, utils.LikeContains(t))
			}
			if n > 1 {
				b.WriteString("WHEN " + strings.Join(conds, " OR ") + " THEN 3 ")
				for _, t := range q.Terms {
					expr.Args = append(expr.Args, utils.LikeContains(t))
				}
			}
		}

		b.WriteString("WHEN " + contentLike + " THEN 4 ELSE 5 END)")
		expr.Args = append(expr.Args, phrase)
	} else {
		term := q.Phrase
		if len(q.Terms) > 0 {
			term = q.Terms[0]
		}
		b.WriteString(titleLike + " DESC")
		expr.Args = append(expr.Args, utils.LikeContains(term))
	}
	b.WriteString(", " + cols.MenuOrder + " ASC")
	expr.SQL = b.String()
	return expr
}
