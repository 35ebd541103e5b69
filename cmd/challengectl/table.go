package main

import (
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/partyplaylist/backend/src/domain"
)

const dateLayout = "2006-01-02 15:04 MST"

func renderChallenges(challenges []*domain.Challenge, now time.Time) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Title", "Start", "End", "Active", "Window"})

	for _, challenge := range challenges {
		tw.AppendRow(table.Row{
			strconv.FormatInt(challenge.ID, 10),
			challengeLabel(challenge),
			formatDate(challenge.StartDate),
			formatDate(challenge.EndDate),
			activeMark(challenge.IsActive),
			windowState(challenge, now),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	return tw.Render()
}

func challengeLabel(challenge *domain.Challenge) string {
	if challenge.Emoji == "" {
		return challenge.Title
	}
	return challenge.Emoji + " " + challenge.Title
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(dateLayout)
}

func activeMark(active bool) string {
	if active {
		return "yes"
	}
	return ""
}

func windowState(challenge *domain.Challenge, now time.Time) string {
	switch {
	case !challenge.HasWindow():
		return "unscheduled"
	case challenge.Contains(now):
		return "current"
	case challenge.Expired(now):
		return "past"
	default:
		return "upcoming"
	}
}
