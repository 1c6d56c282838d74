package vlr

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/riskibarqy/valorant-fantasy/internal/platform/logging"
	"github.com/riskibarqy/valorant-fantasy/internal/usecase"
)

// StatsClient scrapes the overall stats tables of a match page.
type StatsClient struct {
	client *Client
	logger *logging.Logger
}

func NewStatsClient(cfg ClientConfig) *StatsClient {
	client := NewClient(cfg)
	return &StatsClient{client: client, logger: client.logger}
}

func (c *StatsClient) FetchMatchStats(ctx context.Context, matchExternalID string) (usecase.ExternalMatchStats, error) {
	id := strings.TrimSpace(matchExternalID)
	if id == "" {
		return usecase.ExternalMatchStats{}, fmt.Errorf("%w: match external id is required", usecase.ErrInvalidExternalData)
	}

	doc, err := c.client.fetchDocument(ctx, "/"+id)
	if err != nil {
		return usecase.ExternalMatchStats{}, fmt.Errorf("fetch match stats match=%s: %w", id, err)
	}

	page, err := parseMatchPage(doc)
	if err != nil {
		return usecase.ExternalMatchStats{}, fmt.Errorf("parse match=%s: %w", id, err)
	}

	out := usecase.ExternalMatchStats{
		MatchExternalID: id,
		Team1:           page.team1,
		Team2:           page.team2,
		Score1:          page.score1,
		Score2:          page.score2,
		Players:         make([]usecase.ExternalPlayerStat, 0, len(page.players)),
	}
	for _, row := range page.players {
		if err := validateDTO(row); err != nil {
			c.logger.WarnContext(ctx, "drop stat row", "match_id", id, "player", row.PlayerName, "error", err)
			continue
		}
		out.Players = append(out.Players, row.toExternal())
	}
	for _, rowErr := range page.rowErrors {
		c.logger.WarnContext(ctx, "drop stat row", "match_id", id, "error", rowErr)
	}

	return out, nil
}

type matchPage struct {
	team1     string
	team2     string
	score1    int
	score2    int
	status    string
	players   []playerStatDTO
	rowErrors []error
}

func parseMatchPage(doc *goquery.Document) (matchPage, error) {
	var page matchPage

	teams := make([]string, 0, 2)
	doc.Find(".match-header-link .match-header-link-name").Each(func(_ int, sel *goquery.Selection) {
		name := firstLine(sel.Find(".wf-title-med").First())
		if name == "" {
			name = firstLine(sel)
		}
		teams = append(teams, name)
	})
	if len(teams) != 2 {
		return page, fmt.Errorf("%w: found %d teams in match header, want 2", usecase.ErrInvalidExternalData, len(teams))
	}
	for _, name := range teams {
		if len(name) < 2 {
			return page, fmt.Errorf("%w: invalid team name %q", usecase.ErrInvalidExternalData, name)
		}
	}
	page.team1, page.team2 = teams[0], teams[1]
	page.status = headerStatus(doc)
	if page.status != "upcoming" {
		page.score1, page.score2 = headerScores(doc.Find(".match-header-vs-score").First())
	}

	container := overallStatsContainer(doc)
	processed := make(map[string]struct{}, 10)
	tableIdx := 0
	container.Find("table.wf-table-inset").Each(func(_ int, table *goquery.Selection) {
		columns := statColumns(table)
		if _, ok := columns["K"]; !ok {
			return
		}
		teamName := page.team1
		if tableIdx%2 == 1 {
			teamName = page.team2
		}
		tableIdx++

		table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
			stat, ok, err := parseStatRow(row, columns, teamName)
			if err != nil {
				page.rowErrors = append(page.rowErrors, err)
				return
			}
			if !ok {
				return
			}
			key := strings.ToLower(stat.PlayerName)
			if _, dup := processed[key]; dup {
				return
			}
			processed[key] = struct{}{}
			page.players = append(page.players, stat)
		})
	})

	return page, nil
}

// overallStatsContainer finds the all-maps tab. Best-of-one pages only have a
// single map container.
func overallStatsContainer(doc *goquery.Document) *goquery.Selection {
	if all := doc.Find(".vm-stats-game[data-game-id='all']"); all.Length() > 0 {
		return all.First()
	}

	var target *goquery.Selection
	doc.Find(".vm-stats-gamesnav-item").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		label := strings.ToLower(item.Text())
		if !strings.Contains(label, "all") && !strings.Contains(label, "overall") {
			return true
		}
		if gameID, ok := item.Attr("data-game-id"); ok && gameID != "" {
			if found := doc.Find(fmt.Sprintf(".vm-stats-game[data-game-id='%s']", gameID)); found.Length() > 0 {
				target = found.First()
				return false
			}
		}
		return true
	})
	if target != nil {
		return target
	}
	if first := doc.Find(".vm-stats-game"); first.Length() > 0 {
		return first.First()
	}
	return doc.Selection
}

func statColumns(table *goquery.Selection) map[string]int {
	columns := make(map[string]int, 12)
	table.Find("thead th").Each(func(i int, th *goquery.Selection) {
		label := strings.ToUpper(strings.TrimSpace(th.Text()))
		switch label {
		case "R", "R2.0", "RATING":
			label = "RATING"
		}
		if _, exists := columns[label]; !exists && label != "" {
			columns[label] = i
		}
	})
	return columns
}

func parseStatRow(row *goquery.Selection, columns map[string]int, teamName string) (playerStatDTO, bool, error) {
	nameCell := row.Find(".mod-player").First()
	if nameCell.Length() == 0 {
		nameCell = row.Find(".text-of").First()
	}
	if nameCell.Length() == 0 {
		return playerStatDTO{}, false, nil
	}
	name := firstLine(nameCell.Find(".text-of").First())
	if name == "" {
		name = firstLine(nameCell)
	}
	if len(name) < 2 {
		return playerStatDTO{}, false, nil
	}

	agent := "Unknown"
	if img := row.Find(".mod-agents img").First(); img.Length() > 0 {
		if title, ok := img.Attr("title"); ok && strings.TrimSpace(title) != "" {
			agent = strings.TrimSpace(title)
		} else if alt, ok := img.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
			agent = strings.TrimSpace(alt)
		}
	}

	cells := row.Find("td")
	var parseErr error
	value := func(column string) float64 {
		idx, ok := columns[column]
		if !ok || idx >= cells.Length() {
			return 0
		}
		raw := cellText(cells.Eq(idx))
		out, ok := parseNumber(raw)
		if !ok && parseErr == nil {
			parseErr = fmt.Errorf("%w: player=%s column=%s value=%q", usecase.ErrInvalidExternalData, name, column, raw)
		}
		return out
	}

	stat := playerStatDTO{
		PlayerName:  name,
		TeamName:    teamName,
		Agent:       agent,
		Rating:      value("RATING"),
		ACS:         value("ACS"),
		Kills:       int(value("K")),
		Deaths:      int(value("D")),
		Assists:     int(value("A")),
		KAST:        value("KAST"),
		ADR:         value("ADR"),
		HeadshotPct: value("HS%"),
		FirstKills:  int(value("FK")),
		FirstDeaths: int(value("FD")),
	}
	if parseErr != nil {
		return playerStatDTO{}, false, parseErr
	}
	if stat.Rating == 0 && stat.KAST > 0 {
		stat.Rating = stat.KAST / 100
	}
	return stat, true, nil
}

func headerStatus(doc *goquery.Document) string {
	var status string
	doc.Find(".match-header-vs-note").EachWithBreak(func(_ int, note *goquery.Selection) bool {
		text := strings.ToUpper(strings.TrimSpace(note.Text()))
		switch {
		case strings.Contains(text, "LIVE"):
			status = "live"
		case strings.Contains(text, "FINAL"):
			status = "completed"
		default:
			return true
		}
		return false
	})
	if status == "" {
		return "upcoming"
	}
	return status
}

// headerScores reads the series score. Anything above five maps is not a
// series score and is reported as 0-0.
func headerScores(container *goquery.Selection) (int, int) {
	if container.Length() == 0 {
		return 0, 0
	}

	var s1, s2 int
	spans := container.Find("span.js-spoiler")
	if spans.Length() >= 2 {
		a, okA := parseScore(spans.Eq(0).Text())
		b, okB := parseScore(spans.Eq(1).Text())
		if okA && okB {
			s1, s2 = a, b
		}
	}

	if s1 == 0 && s2 == 0 {
		digits := make([]int, 0, 2)
		container.Children().Filter("div").Each(func(_ int, div *goquery.Selection) {
			text := strings.TrimSpace(div.Text())
			if len(text) == 1 {
				if v, ok := parseScore(text); ok {
					digits = append(digits, v)
				}
			}
		})
		if len(digits) >= 2 {
			s1, s2 = digits[0], digits[1]
		}
	}

	if s1 == 0 && s2 == 0 {
		if found := singleDigitRegex.FindAllStringSubmatch(container.Text(), 2); len(found) == 2 {
			s1, _ = parseScore(found[0][1])
			s2, _ = parseScore(found[1][1])
		}
	}

	if s1 > 5 || s2 > 5 {
		return 0, 0
	}
	return s1, s2
}
