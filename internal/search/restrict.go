package search

import (
	"net/url"
	"strings"

	"github.com/hyperjump/thoreau/internal/models"
	"github.com/hyperjump/thoreau/pkg/utils"
)

// Restrict limits a front-end search to pages and excludes the aggregation
// pages. Admin queries and non-search queries are left alone.
func Restrict(desc *models.QueryDescriptor, aggregationIDs []int64) {
	if desc == nil || desc.IsAdmin || !desc.IsSearch {
		return
	}
	desc.PostType = models.PostTypePage
	desc.ExcludeIDs = utils.UniqueIDs(desc.ExcludeIDs, aggregationIDs)
}

// AddSearchArg appends s=phrase to link so the destination page can highlight
// the terms. Links that cannot be parsed are returned unchanged.
func AddSearchArg(link, phrase string) string {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return link
	}
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	v := u.Query()
	v.Set("s", phrase)
	u.RawQuery = v.Encode()
	return u.String()
}
