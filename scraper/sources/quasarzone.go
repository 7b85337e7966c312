package sources

import (
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"

	"hiko-crawler/models"
)

var quasarzoneID = regexp.MustCompile(`/views/(\d+)`)

// Quasarzone reads the quasarzone sale info board, which has dedicated
// price, brand and shipping cells.
type Quasarzone struct{ site }

func NewQuasarzone() *Quasarzone {
	return &Quasarzone{site{
		source:  models.SourceQuasarzone,
		name:    "퀘이사존",
		baseURL: "https://quasarzone.com/bbs/qb_saleinfo",
		detail: DetailSelectors{
			ContentAreas: []string{".board-contents", ".view-content", ".article-content", ".post-content", "div[class*=\"content\"]"},
			Images:       ".board-contents img, .view-content img",
		},
		priceFld: true,
	}}
}

func (q *Quasarzone) ListURL(page int) string { return q.pagedURL(page) }

func (q *Quasarzone) ParseListing(doc *goquery.Document, now time.Time) []*models.RawListing {
	var out []*models.RawListing
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		info := row.Find("div.market-info-list").First()
		if info.Length() == 0 {
			return
		}
		link := info.Find("a.subject-link").First()
		href, _ := link.Attr("href")
		title := text(link, "span.ellipsis-with-reply-cnt")
		if title == "" {
			title = link.Text()
		}

		out = append(out, &models.RawListing{
			Source:       q.source,
			PostID:       firstSubmatch(quasarzoneID, href),
			Title:        title,
			URL:          q.absolute(href),
			Author:       text(row, "span.user-nick-wrap .user-nick-text"),
			DateText:     text(info, "span.date"),
			Views:        text(info, "span.count"),
			Likes:        text(row, "td:first-child span.num"),
			Comments:     text(info, "span.board-list-comment span.ctn-count"),
			PriceText:    text(info, "span.text-orange"),
			Store:        text(info, "span.brand"),
			Category:     text(info, "span.category"),
			ShippingText: text(info, "div.market-info-sub p:first-child span"),
			StatusText:   text(info, "span.label"),
			ImageURL:     attr(row, "img", "src"),
			ScrapedAt:    now,
		})
	})
	return out
}

func (q *Quasarzone) Extract(raw *models.RawListing, now time.Time) (*models.NormalizedPost, bool) {
	return q.extract(raw, now)
}
