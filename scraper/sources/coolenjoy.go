package sources

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"hiko-crawler/models"
)

var (
	coolenjoyPathID  = regexp.MustCompile(`/jirum/(\d+)`)
	coolenjoyLastNum = regexp.MustCompile(`/(\d+)/?(?:[?#].*)?$`)
	soldOutTags      = []string{"[품절]", "[종료]", "[마감]", "[완료]"}
)

// Coolenjoy reads the coolenjoy PC hardware deal board.
type Coolenjoy struct{ site }

func NewCoolenjoy() *Coolenjoy {
	return &Coolenjoy{site{
		source:  models.SourceCoolenjoy,
		name:    "쿨엔조이",
		baseURL: "https://coolenjoy.net/bbs/jirum",
		detail: DetailSelectors{
			ContentAreas: []string{"div.view_content", "div.board_view", ".content-body", ".view-content", "div[id*=\"content\"]"},
			Images:       "div.view_content img, div.board_view img",
		},
	}}
}

func (c *Coolenjoy) ListURL(page int) string { return c.pagedURL(page) }

func (c *Coolenjoy) ParseListing(doc *goquery.Document, now time.Time) []*models.RawListing {
	var out []*models.RawListing
	doc.Find("li.d-md-table-row").Each(func(_ int, item *goquery.Selection) {
		link := item.Find("a.na-subject").First()
		href, _ := link.Attr("href")
		title := link.Text()

		// the fourth and fifth table cells hold date and views
		cells := item.Find(".d-md-table-cell")
		var dateText, views string
		if cells.Length() >= 5 {
			dateText = strings.TrimSpace(cells.Eq(3).Text())
			views = strings.TrimSpace(cells.Eq(4).Text())
		}

		var status string
		if item.HasClass("sold_out") || item.Find(".sold_out").Length() > 0 || hasAny(title, soldOutTags) {
			status = "sold_out"
		}

		out = append(out, &models.RawListing{
			Source:     c.source,
			PostID:     coolenjoyPostID(href),
			Title:      title,
			URL:        c.absolute(href),
			Author:     text(item, "a.sv_member"),
			DateText:   dateText,
			Views:      views,
			Likes:      text(item, "span.rank-icon_vote"),
			Comments:   text(item, "span.count-plus"),
			PriceText:  text(item, `font[color="#f89e00"]`),
			Category:   text(item, "div#abcd"),
			StatusText: status,
			ScrapedAt:  now,
		})
	})
	return out
}

func (c *Coolenjoy) Extract(raw *models.RawListing, now time.Time) (*models.NormalizedPost, bool) {
	return c.extract(raw, now)
}

func coolenjoyPostID(href string) string {
	if id := firstSubmatch(coolenjoyPathID, href); id != "" {
		return id
	}
	if id := queryParam(href, "wr_id"); id != "" {
		return id
	}
	return firstSubmatch(coolenjoyLastNum, href)
}
