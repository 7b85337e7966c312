package sources

import (
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"hiko-crawler/models"
)

// Clien reads the clien 알뜰구매 board. Its pages are 0-based on the wire.
type Clien struct{ site }

func NewClien() *Clien {
	return &Clien{site{
		source:  models.SourceClien,
		name:    "클리앙",
		baseURL: "https://www.clien.net/service/board/jirum",
		detail: DetailSelectors{
			ContentAreas: []string{".post_content", ".content_view", ".board_main", "div[class*=\"content\"]"},
			Images:       ".post_content img, .content_view img",
		},
	}}
}

func (c *Clien) ListURL(page int) string {
	if page <= 1 {
		return c.baseURL
	}
	return c.baseURL + "?&po=" + strconv.Itoa(page-1)
}

func (c *Clien) ParseListing(doc *goquery.Document, now time.Time) []*models.RawListing {
	var out []*models.RawListing
	doc.Find("div.list_item.symph_row.jirum").Each(func(_ int, item *goquery.Selection) {
		id, _ := item.Attr("data-board-sn")
		comments, _ := item.Attr("data-comment-count")

		link := item.Find("div.list_title a").First()
		href, _ := link.Attr("href")
		title := text(link, "span.subject_fixed")
		if title == "" {
			title = link.Text()
		}

		author := text(item, "div.list_author span.nickname span")
		if author == "" {
			author = attr(item, "div.list_author span.nickname img", "alt")
		}

		var status string
		if item.HasClass("sold_out") {
			status = "sold_out"
		}

		out = append(out, &models.RawListing{
			Source:     c.source,
			PostID:     strings.TrimSpace(id),
			Title:      title,
			URL:        c.absolute(href),
			Author:     author,
			DateText:   text(item, "div.list_time span.timestamp"),
			Views:      text(item, "div.list_hit span.hit"),
			Likes:      text(item, "div.list_symph em"),
			Comments:   comments,
			Category:   text(item, "span.category"),
			StatusText: status,
			ScrapedAt:  now,
		})
	})
	return out
}

func (c *Clien) Extract(raw *models.RawListing, now time.Time) (*models.NormalizedPost, bool) {
	return c.extract(raw, now)
}
