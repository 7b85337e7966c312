package services

import (
	"fmt"
	"sort"
	"strings"

	"hiko-crawler/models"
	"hiko-crawler/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

func (s *InsightService) Generate(deals []*models.HotDeal) *models.CrawlStatistics {
	stats := &models.CrawlStatistics{
		CategoryCounts: make(map[models.Category]int),
		StoreCounts:    make(map[string]int),
		SourceCounts:   make(map[models.Source]int),
	}

	if len(deals) == 0 {
		return stats
	}

	stats.TotalDeals = len(deals)

	var priced []*models.HotDeal
	liked := make([]*models.HotDeal, 0, len(deals))

	for _, d := range deals {
		switch d.Status {
		case models.StatusActive:
			stats.ActiveDeals++
		case models.StatusExpired:
			stats.ExpiredDeals++
		}
		if d.IsFreeShipping {
			stats.FreeShippingCount++
		}
		if d.ImageURL != "" || d.ThumbnailURL != "" {
			stats.ImagesCount++
		}
		if d.Description != "" {
			stats.ContentCount++
		}
		if d.SalePrice > 0 {
			priced = append(priced, d)
		}
		if d.Category != "" {
			stats.CategoryCounts[d.Category]++
		}
		if d.Seller != "" {
			stats.StoreCounts[d.Seller]++
		}
		stats.SourceCounts[d.Source]++
		liked = append(liked, d)
	}

	// Price stats (only deals with a fixed price)
	if len(priced) > 0 {
		stats.MinPrice = priced[0].SalePrice
		stats.MaxPrice = priced[0].SalePrice
		var total float64
		for _, d := range priced {
			total += float64(d.SalePrice)
			if d.SalePrice < stats.MinPrice {
				stats.MinPrice = d.SalePrice
			}
			if d.SalePrice > stats.MaxPrice {
				stats.MaxPrice = d.SalePrice
			}
		}
		stats.AveragePrice = round2(total / float64(len(priced)))
	}

	// Top 5 by likes
	sort.SliceStable(liked, func(i, j int) bool {
		return liked[i].LikeCount > liked[j].LikeCount
	})
	if len(liked) > 5 {
		liked = liked[:5]
	}
	stats.TopLiked = liked

	return stats
}

func (s *InsightService) Print(r *models.CrawlStatistics) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 HOTDEAL CRAWL STATISTICS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Total deals        : \033[1m%d\033[0m\n", r.TotalDeals)
	fmt.Printf("  Active / expired   : \033[1m%d / %d\033[0m\n", r.ActiveDeals, r.ExpiredDeals)
	fmt.Printf("  Free shipping      : \033[1m%d\033[0m\n", r.FreeShippingCount)
	fmt.Printf("  With image         : \033[1m%d\033[0m\n", r.ImagesCount)
	fmt.Printf("  With content       : \033[1m%d\033[0m\n", r.ContentCount)
	fmt.Println()

	// Price Stats
	fmt.Printf("\033[1;33m  Price Statistics (KRW)\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if r.AveragePrice > 0 {
		fmt.Printf("  Average price : \033[1;32m₩%.0f\033[0m\n", r.AveragePrice)
		fmt.Printf("  Minimum price : \033[1;32m₩%d\033[0m\n", r.MinPrice)
		fmt.Printf("  Maximum price : \033[1;32m₩%d\033[0m\n", r.MaxPrice)
	} else {
		fmt.Printf("  No price data available\n")
	}
	fmt.Println()

	// ── TOP 5 MOST LIKED ─────────────────────────────────────────────────
	fmt.Printf("\033[1;33m  Top 5 Most Liked Deals\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.TopLiked) == 0 {
		fmt.Printf("  No deals found\n")
	} else {
		for i, d := range r.TopLiked {
			fmt.Printf("  \033[1m%d.\033[0m %-40s \033[1;32m%d ♥\033[0m\n",
				i+1, truncate(d.Title, 38), d.LikeCount)
		}
	}
	fmt.Println()

	printCounts("Deals by Source", stringKeys(r.SourceCounts), thin)
	printCounts("Deals by Category", stringKeys(r.CategoryCounts), thin)
	printCounts("Top Stores", topN(stringKeys(r.StoreCounts), 10), thin)

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

type keyCount struct {
	key   string
	count int
}

func stringKeys[K ~string](m map[K]int) []keyCount {
	out := make([]keyCount, 0, len(m))
	for k, n := range m {
		if k != "" {
			out = append(out, keyCount{string(k), n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count == out[j].count {
			return out[i].key < out[j].key
		}
		return out[i].count > out[j].count
	})
	return out
}

func topN(kc []keyCount, n int) []keyCount {
	if len(kc) > n {
		return kc[:n]
	}
	return kc
}

func printCounts(title string, rows []keyCount, thin string) {
	fmt.Printf("\033[1;33m  %s\033[0m\n", title)
	fmt.Printf("  %s\n", thin)
	if len(rows) == 0 {
		fmt.Printf("  No data\n")
	}
	for _, kc := range rows {
		bar := strings.Repeat("█", min(kc.count, 40))
		fmt.Printf("  %-30s %s (%d)\n", truncate(kc.key, 28), bar, kc.count)
	}
	fmt.Println()
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

// truncate shortens s to max runes so Korean titles are never cut mid-character.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
