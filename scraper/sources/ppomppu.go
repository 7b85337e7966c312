package sources

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"hiko-crawler/models"
	"hiko-crawler/services"
)

var (
	ppomppuTitleCount = regexp.MustCompile(`\s*\[(\d+)\]\s*$`)
	ppomppuDigits     = regexp.MustCompile(`^\d+$`)
)

// Ppomppu reads the ppomppu domestic deal board.
type Ppomppu struct{ site }

func NewPpomppu() *Ppomppu {
	return &Ppomppu{site{
		source:  models.SourcePpomppu,
		name:    "뽐뿌",
		baseURL: "https://www.ppomppu.co.kr/zboard/zboard.php?id=ppomppu",
		detail: DetailSelectors{
			ContentAreas: []string{"td.board-contents", ".board-contents", "div[class*=\"content\"]"},
			Images:       "td.board-contents img, .board-contents img",
		},
	}}
}

func (p *Ppomppu) ListURL(page int) string {
	if page <= 1 {
		return p.baseURL
	}
	return p.baseURL + "&page=" + strconv.Itoa(page)
}

func (p *Ppomppu) ParseListing(doc *goquery.Document, now time.Time) []*models.RawListing {
	var out []*models.RawListing
	doc.Find("#revolution_main_table > tbody > tr.baseList").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("td.baseList-space.title > div > div > a").First()
		href, _ := link.Attr("href")

		title := services.CollapseSpace(link.Find("span").First().Text())
		if title == "" {
			title = services.CollapseSpace(link.Text())
		}

		id := text(row, "td.baseList-numb")
		if !ppomppuDigits.MatchString(id) {
			id = queryParam(href, "no")
		}

		out = append(out, &models.RawListing{
			Source:    p.source,
			PostID:    id,
			Title:     title,
			URL:       p.absolute(href),
			Author:    text(row, "td:nth-child(3) > div > nobr > a > span"),
			DateText:  text(row, "td:nth-child(4) > time"),
			Views:     text(row, "td.baseList-space.baseList-views"),
			Likes:     text(row, "td.baseList-space.baseList-rec"),
			Comments:  text(row, "td.baseList-space.title > div > div > span"),
			Category:  text(row, "td.baseList-space.title > div > small"),
			ImageURL:  attr(row, "td.baseList-space.title > a > img", "src"),
			ScrapedAt: now,
		})
	})
	return out
}

// Extract handles the "14 - 0" recommend cell, where the first number is
// the like count, and a trailing "[N]" comment count on the title.
func (p *Ppomppu) Extract(raw *models.RawListing, now time.Time) (*models.NormalizedPost, bool) {
	r := *raw
	if i := strings.Index(r.Likes, "-"); i >= 0 {
		r.Likes = r.Likes[:i]
	}
	if m := ppomppuTitleCount.FindStringSubmatch(r.Title); m != nil {
		r.Title = r.Title[:len(r.Title)-len(m[0])]
		if strings.TrimSpace(r.Comments) == "" {
			r.Comments = m[1]
		}
	}
	return p.extract(&r, now)
}
