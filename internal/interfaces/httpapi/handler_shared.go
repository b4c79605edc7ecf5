package httpapi

import (
	"time"

	"github.com/riskibarqy/fbref-report/internal/domain/fixture"
	"github.com/riskibarqy/fbref-report/internal/domain/league"
	"github.com/riskibarqy/fbref-report/internal/domain/task"
)

type createReportRequest struct {
	MatchURL string `json:"match_url" validate:"required,max=2048"`
	MatchID  string `json:"match_id" validate:"omitempty,max=64"`
	Format   string `json:"format" validate:"omitempty,oneof=xlsx XLSX"`
}

type leagueDTO struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	CountryCode string `json:"country_code"`
}

type fixtureDTO struct {
	LeagueCode  string `json:"league_code"`
	LeagueName  string `json:"league_name"`
	Date        string `json:"date"`
	Gameweek    string `json:"gameweek,omitempty"`
	Time        string `json:"time,omitempty"`
	HomeTeam    string `json:"home_team"`
	AwayTeam    string `json:"away_team"`
	Score       string `json:"score,omitempty"`
	Venue       string `json:"venue,omitempty"`
	HomeTeamURL string `json:"home_team_url,omitempty"`
	AwayTeamURL string `json:"away_team_url,omitempty"`
	MatchURL    string `json:"match_url,omitempty"`
	MatchID     string `json:"match_id,omitempty"`
	Played      bool   `json:"played"`
}

type reportCreatedDTO struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

type reportStatusDTO struct {
	TaskID      string    `json:"task_id"`
	Status      string    `json:"status"`
	Progress    int       `json:"progress"`
	Message     string    `json:"message"`
	MatchURL    string    `json:"match_url,omitempty"`
	MatchID     string    `json:"match_id,omitempty"`
	DownloadURL string    `json:"download_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func leagueToDTO(v league.League) leagueDTO {
	return leagueDTO{
		Code:        v.Code,
		Name:        v.Name,
		CountryCode: v.CountryCode,
	}
}

func fixtureToDTO(v fixture.Fixture) fixtureDTO {
	return fixtureDTO{
		LeagueCode:  v.LeagueCode,
		LeagueName:  v.LeagueName,
		Date:        v.Date,
		Gameweek:    v.Gameweek,
		Time:        v.Time,
		HomeTeam:    v.HomeTeam,
		AwayTeam:    v.AwayTeam,
		Score:       v.Score,
		Venue:       v.Venue,
		HomeTeamURL: v.HomeTeamURL,
		AwayTeamURL: v.AwayTeamURL,
		MatchURL:    v.MatchURL,
		MatchID:     v.MatchID,
		Played:      v.IsPlayed(),
	}
}

func reportToDTO(v task.Task) reportStatusDTO {
	out := reportStatusDTO{
		TaskID:    v.ID,
		Status:    string(v.Status),
		Progress:  v.Progress,
		Message:   v.Message,
		MatchURL:  v.MatchURL,
		MatchID:   v.MatchID,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
	if v.Status == task.StatusCompleted {
		out.DownloadURL = "/v1/reports/" + v.ID + "/download"
	}
	return out
}
