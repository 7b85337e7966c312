package sources

import (
	"regexp"
	"time"

	"github.com/PuerkitoBio/goquery"

	"hiko-crawler/models"
)

var eomisaeID = regexp.MustCompile(`/fs/(\d+)`)

// Eomisae reads the eomisae fashion sale board. Its category label doubles
// as the seller when the title has no bracket.
type Eomisae struct{ site }

func NewEomisae() *Eomisae {
	return &Eomisae{site{
		source:  models.SourceEomisae,
		name:    "어미새",
		baseURL: "https://eomisae.co.kr/fs",
		detail: DetailSelectors{
			ContentAreas: []string{".xe_content", ".board-content", ".view-content", "div[class*=\"content\"]"},
			Images:       ".xe_content img, .board-content img",
		},
	}}
}

func (e *Eomisae) ListURL(page int) string { return e.pagedURL(page) }

func (e *Eomisae) ParseListing(doc *goquery.Document, now time.Time) []*models.RawListing {
	var out []*models.RawListing
	doc.Find("div.card_el.n_ntc").Each(func(_ int, card *goquery.Selection) {
		link := card.Find("h3 a.pjax").First()
		href, _ := link.Attr("href")

		out = append(out, &models.RawListing{
			Source:    e.source,
			PostID:    firstSubmatch(eomisaeID, href),
			Title:     link.Text(),
			URL:       e.absolute(href),
			Author:    text(card, "div.info span div"),
			DateText:  text(card, "p > span:not(.cate)"),
			Views:     text(card, "span.fr:has(i.ion-ios-eye)"),
			Likes:     text(card, "span.fr:has(i.ion-ios-heart)"),
			Comments:  text(card, "span.fr:has(i.ion-ios-chatbubble)"),
			Category:  text(card, "span.cate"),
			ImageURL:  attr(card, "img.tmb", "src"),
			ScrapedAt: now,
		})
	})
	return out
}

func (e *Eomisae) Extract(raw *models.RawListing, now time.Time) (*models.NormalizedPost, bool) {
	return e.extract(raw, now)
}
