package sources

import (
	"time"

	"github.com/PuerkitoBio/goquery"

	"hiko-crawler/models"
)

// Ruliweb reads the ruliweb user deal board.
type Ruliweb struct{ site }

func NewRuliweb() *Ruliweb {
	return &Ruliweb{site{
		source:  models.SourceRuliweb,
		name:    "루리웹",
		baseURL: "https://bbs.ruliweb.com/market/board/1020",
		detail: DetailSelectors{
			ContentAreas: []string{".board_content", ".view_content", ".article_content", ".post-content", "div[class*=\"content\"]"},
			Images:       ".board_content img, .view_content img, .article_content img, .post-content img",
		},
	}}
}

func (r *Ruliweb) ListURL(page int) string { return r.pagedURL(page) }

func (r *Ruliweb) ParseListing(doc *goquery.Document, now time.Time) []*models.RawListing {
	var out []*models.RawListing
	doc.Find("tbody tr.table_body:not(.notice):not(.best)").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("td.subject a.subject_link").First()
		href, _ := link.Attr("href")

		out = append(out, &models.RawListing{
			Source:    r.source,
			PostID:    text(row, "td.id"),
			Title:     link.Text(),
			URL:       r.absolute(href),
			Author:    text(row, "td.writer a"),
			DateText:  text(row, "td.time"),
			Views:     text(row, "td.hit"),
			Likes:     text(row, "td.recomd"),
			Comments:  text(row, "td.subject a.num_reply"),
			Category:  text(row, "td.divsn a strong"),
			ScrapedAt: now,
		})
	})
	return out
}

func (r *Ruliweb) Extract(raw *models.RawListing, now time.Time) (*models.NormalizedPost, bool) {
	return r.extract(raw, now)
}
